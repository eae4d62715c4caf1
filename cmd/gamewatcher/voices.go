package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"gamewatcher/internal/config"
	"gamewatcher/internal/voicepack"
)

func newVoicesCommand() *cobra.Command {
	var packPath string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the speakers in a voice pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if packPath != "" {
				cfg.PackPath = packPath
			}
			pack, err := voicepack.Load(cfg.PackPath, cfg.CatalogPath)
			if err != nil {
				return err
			}
			renderVoices(cmd.OutOrStdout(), pack)
			return nil
		},
	}

	cmd.Flags().StringVar(&packPath, "pack", "", "pack manifest path (overrides PACK_PATH)")

	return cmd
}

func renderVoices(out io.Writer, pack *voicepack.Pack) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Speaker", "Dir", "Lines", "Voiced", "Effects"})

	var voiced int
	for _, s := range pack.Speakers() {
		tw.AppendRow(table.Row{s.Name, s.Dir, s.Lines, s.Voiced, strings.Join(s.Tags, " ")})
		voiced += s.Voiced
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()

	title := pack.Name
	if pack.Version != "" {
		title += " " + pack.Version
	}
	summary := fmt.Sprintf("%s: %d lines, %d voiced", title, pack.Len(), voiced)
	fmt.Fprintln(out, colorize(out, summary))
}

// colorize greens the summary only when writing to a terminal.
func colorize(out io.Writer, s string) string {
	f, ok := out.(*os.File)
	if !ok {
		return s
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "\x1b[32m" + s + "\x1b[0m"
	}
	return s
}

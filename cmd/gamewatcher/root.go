package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gamewatcher",
		Short: "Watch a game window and voice its dialogue",
		Long: "gamewatcher captures the screen, finds the dialogue box, reads its text\n" +
			"with OCR, and plays the matching voice clip from a voice pack.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVoicesCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

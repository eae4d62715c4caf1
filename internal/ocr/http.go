package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperr "gamewatcher/internal/errors"
)

// HTTPEngine sends regions to an OCR sidecar service.
type HTTPEngine struct {
	base string
	c    *http.Client
}

type httpResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NewHTTP creates a sidecar client. base is the service root URL.
func NewHTTP(base string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		base: strings.TrimRight(base, "/"),
		c:    &http.Client{Timeout: timeout},
	}
}

func (h *HTTPEngine) Name() string { return "http" }

// Recognize uploads the region as a multipart PNG and returns the text.
func (h *HTTPEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", "region.png")
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "failed to build upload")
	}
	if _, err := fw.Write(data); err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "failed to build upload")
	}
	if err := w.Close(); err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "failed to build upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/ocr", &b)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "failed to build request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return "", apperr.Wrap(err, apperr.OCRUnavailable, "OCR service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		code := apperr.OCRExtractFailed
		if resp.StatusCode >= http.StatusInternalServerError {
			code = apperr.OCRUnavailable
		}
		return "", apperr.Newf(code, "OCR service %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out httpResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(err, apperr.OCRExtractFailed, "failed to decode OCR response")
	}
	slog.Debug("OCR response", "confidence", out.Confidence, "chars", len(out.Text))
	return strings.TrimSpace(out.Text), nil
}

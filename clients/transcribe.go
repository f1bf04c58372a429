package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pansum/panelpipe/pipeline"
)

type TransSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscribeResp struct {
	Segments []TransSeg `json:"segments"`
	Text     string     `json:"text"`
	Language string     `json:"language"`
}

// Transcription calls the speech-to-text service for one audio window and
// shifts window-local timestamps to global time before returning them.
type Transcription struct {
	h   *HTTP
	url string
}

func NewTranscription(h *HTTP, url string) *Transcription {
	return &Transcription{h: h, url: url}
}

// Transcribe uploads the window's extract and returns its segments with
// start/end already shifted by the window's base offset. Transport
// failures are marked transient for the caller's retry policy; protocol
// errors are not.
func (t *Transcription) Transcribe(ctx context.Context, w pipeline.Window) ([]pipeline.Segment, error) {
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	fw, err := mw.CreateFormFile("file", filepath.Base(w.Path))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(w.Path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.h.c.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, pipeline.MarkTransient(fmt.Errorf("transcribe: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcribe %s: %s", resp.Status, string(body))
	}

	var out TranscribeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcribe decode: %w", err)
	}

	segs := make([]pipeline.Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segs = append(segs, pipeline.Segment{
			Start: s.Start + w.BaseOffset,
			End:   s.End + w.BaseOffset,
			Text:  s.Text,
		})
	}
	return segs, nil
}

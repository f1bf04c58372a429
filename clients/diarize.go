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
	"strconv"

	"github.com/pansum/panelpipe/pipeline"
)

type DiarSeg struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

type DiarizeResp struct {
	Segments []DiarSeg `json:"segments"`
}

// Diarization calls the speaker-diarization service for one audio window.
// Every failure maps to ErrDiarizationUnavailable; the pipeline treats the
// window as contributing zero intervals.
type Diarization struct {
	h   *HTTP
	url string
}

func NewDiarization(h *HTTP, url string) *Diarization {
	return &Diarization{h: h, url: url}
}

// Diarize uploads the window's extract and returns speaker intervals with
// timestamps shifted by the window's base offset. The speaker labels are
// window-local until the timeline normalizer relabels them.
func (d *Diarization) Diarize(ctx context.Context, w pipeline.Window, expectedSpeakers int) ([]pipeline.SpeakerInterval, error) {
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)

	fw, err := mw.CreateFormFile("file", filepath.Base(w.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}
	fd, err := os.Open(w.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}
	if expectedSpeakers > 0 {
		if err := mw.WriteField("num_speakers", strconv.Itoa(expectedSpeakers)); err != nil {
			return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
		}
	}
	if err = mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/diarize", &b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.h.c.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", pipeline.ErrDiarizationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", pipeline.ErrDiarizationUnavailable, resp.Status, string(body))
	}

	var out DiarizeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", pipeline.ErrDiarizationUnavailable, err)
	}

	ivs := make([]pipeline.SpeakerInterval, 0, len(out.Segments))
	for _, s := range out.Segments {
		ivs = append(ivs, pipeline.SpeakerInterval{
			Start:   s.Start + w.BaseOffset,
			End:     s.End + w.BaseOffset,
			Speaker: s.Speaker,
		})
	}
	return ivs, nil
}

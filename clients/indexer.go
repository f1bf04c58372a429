package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pansum/panelpipe/pipeline"
)

type IndexReq struct {
	SessionID string           `json:"session_id"`
	Chunks    []pipeline.Chunk `json:"chunks"`
}

type IndexResp struct {
	Status  string `json:"status"`
	Indexed int    `json:"indexed"`
}

// Indexer pushes the final chunk sequence to the downstream retrieval
// index. It is an optional collaborator; failures are reported to the
// caller and never affect the pipeline result.
type Indexer struct {
	h   *HTTP
	url string
}

func NewIndexer(h *HTTP, url string) *Indexer {
	return &Indexer{h: h, url: url}
}

func (ix *Indexer) Index(ctx context.Context, sessionID string, chunks []pipeline.Chunk) (*IndexResp, error) {
	b, _ := json.Marshal(IndexReq{SessionID: sessionID, Chunks: chunks})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ix.url+"/index", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ix.h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("index %s: %s", resp.Status, string(body))
	}

	var out IndexResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("index decode: %w", err)
	}
	return &out, nil
}

// Package clients holds thin HTTP wrappers around the external
// collaborators: the speech-to-text service, the diarization service, and
// the optional downstream chunk indexer. Per-call deadlines come from the
// caller's context; the shared client timeout is only a safety net.
package clients

import (
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{c: &http.Client{Timeout: timeout}}
}

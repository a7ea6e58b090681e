package pipeline

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Status is the processing state of one input document.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusParsing    Status = "parsing"
	StatusSegmenting Status = "segmenting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusMissing    Status = "missing"
	StatusDupSkipped Status = "duplicate_skipped"
)

// DocStatus tracks one document through extraction and segmentation.
type DocStatus struct {
	Document    string    `json:"document"`
	Status      Status    `json:"status"`
	Phase       string    `json:"phase"`
	Extractor   string    `json:"extractor,omitempty"`
	Pages       int       `json:"pages"`
	Sections    int       `json:"sections"`
	ContentHash string    `json:"content_hash,omitempty"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *DocStatus) set(status Status, phase string) {
	d.Status = status
	d.Phase = phase
	d.UpdatedAt = time.Now()
}

func (d *DocStatus) fail(status Status, phase string, err error) {
	d.set(status, phase)
	d.Error = err.Error()
}

// Succeeded reports whether the document contributed sections.
func (d DocStatus) Succeeded() bool {
	return d.Status == StatusCompleted
}

// Report summarises a batch run.
type Report struct {
	RunID     string        `json:"run_id"`
	Documents []DocStatus   `json:"documents"`
	Sections  int           `json:"sections"`
	Selected  int           `json:"selected"`
	Duration  time.Duration `json:"duration_ns"`
}

// Counts returns the number of successful and failed documents. Duplicate
// inputs count as neither.
func (r Report) Counts() (succeeded, failed int) {
	for _, d := range r.Documents {
		switch {
		case d.Succeeded():
			succeeded++
		case d.Status == StatusDupSkipped:
		default:
			failed++
		}
	}
	return succeeded, failed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

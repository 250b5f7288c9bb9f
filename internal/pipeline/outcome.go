package pipeline

import (
	"strings"
	"time"
)

// Status classifies how a song group ended.
type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusSkipped          Status = "skipped"
	StatusDownloadFailed   Status = "download-failed"
	StatusProcessingFailed Status = "processing-failed"
	StatusCancelled        Status = "cancelled"
)

// MetricLabel returns the status in Prometheus label form.
func (s Status) MetricLabel() string {
	return strings.ReplaceAll(string(s), "-", "_")
}

// Failed reports whether the status is a failure.
func (s Status) Failed() bool {
	return s == StatusDownloadFailed || s == StatusProcessingFailed
}

// Outcome is the result of processing one song group.
type Outcome struct {
	SongID        string
	RemoteID      string
	Status        Status
	ChunksWritten int
	ChunksSkipped int
	// FailedChunk names the chunk being written when processing stopped.
	FailedChunk string
	Downloaded  bool
	Err         error
	Elapsed     time.Duration
}

// Summary aggregates the outcomes of one run in manifest order.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Count returns the number of groups with the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Chunks returns total written and skipped chunks.
func (s Summary) Chunks() (written, skipped int) {
	for _, o := range s.Outcomes {
		written += o.ChunksWritten
		skipped += o.ChunksSkipped
	}
	return written, skipped
}

// Failures returns the outcomes that failed.
func (s Summary) Failures() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.Status.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

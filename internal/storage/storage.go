package storage

import (
	"io"
	"time"
)

// Entry is one submitted annotation as kept in the local journal.
type Entry struct {
	ItemID       string    `json:"itemId"`
	Task         string    `json:"task"`
	Text         string    `json:"text"`
	Reason       string    `json:"reason,omitempty"`
	Annotator    string    `json:"annotator,omitempty"`
	AnnotateTime int       `json:"annotateTime"`
	Performance  float64   `json:"performance"`
	Requeued     bool      `json:"requeued"`
	RecordedAt   time.Time `json:"recordedAt"`
}

type Journal interface {
	Record(entry Entry) error
	Files() ([]string, error)
	Open(name string) (io.ReadCloser, error)
}

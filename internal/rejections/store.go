// Package rejections keeps an append-only daily log of catalog rows the gate
// refused, so merchandisers can fix their export.
package rejections

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"storefront-assistant/internal/schemagate"
)

// Record is one line of the rejections log.
type Record struct {
	Source    string `json:"source"`
	Scope     string `json:"scope"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// Store appends rejection records under Dir, one file per UTC day.
type Store struct {
	Dir string
	now func() time.Time
}

// NewStore returns a store writing under dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Write appends every rejection, tagged with source, and returns the file path.
func (s *Store) Write(source string, rs []schemagate.Rejection) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}

	now := s.now().UTC()
	fpath := filepath.Join(s.Dir, fmt.Sprintf("rejections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	ts := now.Format(time.RFC3339Nano)
	for _, r := range rs {
		if err := enc.Encode(Record{Source: source, Scope: r.Scope, Reason: r.Reason, Timestamp: ts}); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return fpath, nil
}

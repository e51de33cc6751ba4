// Package jsonl serves the catalog from JSONL exports, one JSON object per
// line.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/schemagate"
)

// Source is a CatalogProvider over product and category files. The snapshot
// is rebuilt only when a file changes on disk.
type Source struct {
	productsPath   string
	categoriesPath string
	log            zerolog.Logger
	now            func() time.Time

	mu         sync.Mutex
	snap       *model.Snapshot
	rejections []schemagate.Rejection
	stamp      string
}

// NewSource returns a source. categoriesPath may be empty.
func NewSource(productsPath, categoriesPath string, log zerolog.Logger) *Source {
	return &Source{
		productsPath:   productsPath,
		categoriesPath: categoriesPath,
		log:            log.With().Str("component", "jsonl-catalog").Logger(),
		now:            time.Now,
	}
}

// Snapshot returns the current catalog, reloading it if the files changed.
func (s *Source) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	stamp, err := s.fileStamp()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && stamp == s.stamp {
		return s.snap, nil
	}

	products, err := ReadLines[schemagate.RawProduct](s.productsPath)
	if err != nil {
		return nil, err
	}
	var categories []schemagate.RawCategory
	if s.categoriesPath != "" {
		if categories, err = ReadLines[schemagate.RawCategory](s.categoriesPath); err != nil {
			return nil, err
		}
	}

	res, err := schemagate.Build(ctx, products, categories, s.now())
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	for _, r := range res.Rejections {
		s.log.Warn().Str("scope", r.Scope).Str("reason", r.Reason).Msg("catalog row rejected")
	}
	s.log.Info().
		Int("products", len(res.Snapshot.Products)).
		Int("categories", len(res.Snapshot.Categories)).
		Int("rejected", len(res.Rejections)).
		Msg("catalog loaded")

	s.snap, s.rejections, s.stamp = res.Snapshot, res.Rejections, stamp
	return s.snap, nil
}

// Rejections returns the rows dropped by the last load.
func (s *Source) Rejections() []schemagate.Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schemagate.Rejection(nil), s.rejections...)
}

func (s *Source) fileStamp() (string, error) {
	var b strings.Builder
	for _, path := range []string{s.productsPath, s.categoriesPath} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat catalog file: %w", err)
		}
		fmt.Fprintf(&b, "%s:%d:%d;", path, info.Size(), info.ModTime().UnixNano())
	}
	return b.String(), nil
}

// ReadLines decodes a JSONL file. Blank lines are skipped; a malformed line
// fails the whole read with its line number.
func ReadLines[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 10*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

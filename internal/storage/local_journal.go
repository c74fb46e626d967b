package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const journalPrefix = "annotations-"

// LocalJournal appends entries as JSON lines to one file per UTC day.
type LocalJournal struct {
	basePath string
	mu       sync.Mutex
	now      func() time.Time
}

func NewLocalJournal(basePath string) (*LocalJournal, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &LocalJournal{basePath: basePath, now: time.Now}, nil
}

func (j *LocalJournal) Record(entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = j.now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	name := journalPrefix + entry.RecordedAt.UTC().Format("2006-01-02") + ".jsonl"
	f, err := os.OpenFile(filepath.Join(j.basePath, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return nil
}

// Files lists journal files, oldest first.
func (j *LocalJournal) Files() ([]string, error) {
	entries, err := os.ReadDir(j.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), journalPrefix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (j *LocalJournal) Open(name string) (io.ReadCloser, error) {
	cleanPath := filepath.Clean(name)
	if strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("invalid path")
	}

	file, err := os.Open(filepath.Join(j.basePath, cleanPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return file, nil
}

// ReadEntries decodes every entry of a journal file.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	decoder := json.NewDecoder(r)
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err == io.EOF {
			return entries, nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JournalRecord is one line of the action journal: enough to replay or
// audit a session offline.
type JournalRecord struct {
	At        time.Time `json:"at"`
	Session   string    `json:"session"`
	Tick      int       `json:"tick"`
	RequestID string    `json:"requestId"`
	Action    Action    `json:"action"`
	Stats     Stats     `json:"stats"`
	GameOver  bool      `json:"gameOver,omitempty"`
}

// JournalWriter appends zstd-compressed JSON lines to a per-process file.
// Append never blocks the caller on an error; a broken journal degrades to
// log lines rather than taking the game down.
type JournalWriter struct {
	mu   sync.Mutex
	file *os.File
	zw   *zstd.Encoder
	bad  bool
}

func NewJournalWriter(dir string) (*JournalWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	name := fmt.Sprintf("actions-%s.jsonl.zst", time.Now().UTC().Format("20060102-150405"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create journal file: %w", err)
	}
	zw, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("init zstd writer: %w", err)
	}
	return &JournalWriter{file: file, zw: zw}, nil
}

func (w *JournalWriter) Append(rec JournalRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bad {
		return
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		log.Printf("journal: encode record: %v", err)
		return
	}
	line = append(line, '\n')
	if _, err := w.zw.Write(line); err != nil {
		log.Printf("journal: write failed, disabling: %v", err)
		w.bad = true
	}
}

func (w *JournalWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.zw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close zstd writer: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close journal file: %w", err)
	}
	return nil
}

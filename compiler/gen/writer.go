package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// FileWriter validates rendered artifacts in memory and writes the ones
// whose bytes changed. Nothing is written for a file that fails to render
// or format.
type FileWriter struct {
	outDir string

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	FilesRemoved   int
	TotalBytes     int64
	RenderTime     int64 // nanoseconds
	FormatTime     int64 // nanoseconds
	WriteTime      int64 // nanoseconds
}

// NewFileWriter creates a writer rooted at outDir.
func NewFileWriter(outDir string) *FileWriter {
	return &FileWriter{outDir: outDir, metrics: &WriterMetrics{}}
}

// Metrics returns a copy of the generation metrics.
func (w *FileWriter) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// Format renders f and runs goimports over the result, without touching
// the filesystem.
func (w *FileWriter) Format(f *jen.File, rel string) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", rel, err)
	}
	rendered := time.Now()
	formatted, err := imports.Process(filepath.Join(w.outDir, filepath.FromSlash(rel)), buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", rel, err)
	}
	w.mu.Lock()
	w.metrics.RenderTime += int64(rendered.Sub(start))
	w.metrics.FormatTime += int64(time.Since(rendered))
	w.mu.Unlock()
	return formatted, nil
}

// Write formats f and writes it to rel under the output directory. It
// reports whether the file on disk changed.
func (w *FileWriter) Write(f *jen.File, rel string) (bool, error) {
	formatted, err := w.Format(f, rel)
	if err != nil {
		return false, err
	}
	start := time.Now()
	fullPath := filepath.Join(w.outDir, filepath.FromSlash(rel))
	if current, err := os.ReadFile(fullPath); err == nil && bytes.Equal(current, formatted) {
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", rel, err)
	}
	// Replace through a rename.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".spiderly-*")
	if err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(formatted); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}

	// Update metrics
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(formatted))
	w.metrics.WriteTime += int64(time.Since(start))
	w.mu.Unlock()
	return true, nil
}

// Remove deletes rel and its directory when it becomes empty.
func (w *FileWriter) Remove(rel string) (bool, error) {
	fullPath := filepath.Join(w.outDir, filepath.FromSlash(rel))
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return false, nil
	}
	if err := removeArtifact(w.outDir, rel); err != nil {
		return false, err
	}
	w.mu.Lock()
	w.metrics.FilesRemoved++
	w.mu.Unlock()
	return true, nil
}

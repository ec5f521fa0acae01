package runner

import (
	"fmt"
	"os"
	"path/filepath"
)

// Capturer is anything that can write a screenshot to a path.
type Capturer interface {
	Screenshot(path string) error
}

// ScreenshotWriter places screenshots at fixed paths under one directory.
// Paths do not depend on the run, so a repeated run overwrites the evidence
// of the previous one.
type ScreenshotWriter struct {
	outputDir string
}

// NewScreenshotWriter creates a new screenshot writer
func NewScreenshotWriter(outputDir string) *ScreenshotWriter {
	return &ScreenshotWriter{
		outputDir: outputDir,
	}
}

// Path returns where the named screenshot is written.
func (w *ScreenshotWriter) Path(name string) string {
	return filepath.Join(w.outputDir, name)
}

// Capture writes the named screenshot and returns its path.
func (w *ScreenshotWriter) Capture(c Capturer, name string) (string, error) {
	path := w.Path(name)

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := c.Screenshot(path); err != nil {
		return "", err
	}
	return path, nil
}

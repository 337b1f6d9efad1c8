package export

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Writer drops generated files into an output directory. It is the CLI
// equivalent of the browser download the userscripts triggered.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a file writer rooted at dir ("." when empty).
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}
}

// Write stores one file and returns its full path.
func (w *Writer) Write(name string, content []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	w.logger.Debug("output file written",
		zap.String("path", path),
		zap.Int("bytes", len(content)),
	)
	return path, nil
}

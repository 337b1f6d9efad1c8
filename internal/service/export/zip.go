package export

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// File is one named payload inside a bundle.
type File struct {
	Name    string
	Content []byte
}

// BuildZip assembles a deflate zip container from the given files, in order.
// Entry names may carry folder prefixes ("Redrive Chunks/chunk_1.csv").
func BuildZip(files []File) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, file := range files {
		entry, err := w.Create(file.Name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %q: %w", file.Name, err)
		}
		if _, err := entry.Write(file.Content); err != nil {
			return nil, fmt.Errorf("write zip entry %q: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ChunkedZipFiles lays out a CSV and, when it exceeds maxRows data rows, its
// chunks under a "<name> Chunks" folder, matching the redrive bundle layout.
func ChunkedZipFiles(name, csv string, maxRows int) []File {
	files := []File{{Name: name + ".csv", Content: []byte(csv)}}
	if DataRowCount(csv) <= maxRows {
		return files
	}
	for i, chunk := range SplitChunks(csv, maxRows) {
		files = append(files, File{
			Name:    fmt.Sprintf("%s Chunks/chunk_%d.csv", name, i+1),
			Content: []byte(chunk),
		})
	}
	return files
}

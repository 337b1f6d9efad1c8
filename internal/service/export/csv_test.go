package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeaders = []string{"Store", "Name", "PLU"}

func TestToCSVQuotesEveryFieldUnconditionally(t *testing.T) {
	csv := ToCSV(testHeaders, [][]string{
		{"ABC", "Milk", "123"},
		{"DEF", "", "456"},
	})

	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Store,Name,PLU", lines[0], "header line is unquoted")
	assert.Equal(t, `"ABC","Milk","123"`, lines[1])
	assert.Equal(t, `"DEF","","456"`, lines[2], "missing values render as empty quoted strings")
}

func TestToCSVPadsShortRows(t *testing.T) {
	csv := ToCSV(testHeaders, [][]string{{"ABC"}})
	assert.Equal(t, "Store,Name,PLU\n\"ABC\",\"\",\"\"", csv)
}

func TestToCSVRoundTripLineCount(t *testing.T) {
	rows := make([][]string, 250)
	for i := range rows {
		rows[i] = []string{"ABC", fmt.Sprintf("Item %d", i), fmt.Sprintf("%d", i)}
	}
	csv := ToCSV(testHeaders, rows)
	assert.Len(t, strings.Split(csv, "\n"), len(rows)+1)
}

func TestSplitChunksRepeatsHeader(t *testing.T) {
	rows := make([][]string, 5)
	for i := range rows {
		rows[i] = []string{"ABC", "x", fmt.Sprintf("%d", i)}
	}
	csv := ToCSV(testHeaders, rows)

	chunks := SplitChunks(csv, 2)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk, "Store,Name,PLU\n"))
	}
	assert.Equal(t, 2, DataRowCount(chunks[0]))
	assert.Equal(t, 1, DataRowCount(chunks[2]))
}

func TestSplitChunksEmptyCSV(t *testing.T) {
	assert.Nil(t, SplitChunks("Store,Name,PLU", 100))
}

func TestBuildZipRoundTrip(t *testing.T) {
	payload, err := BuildZip([]File{
		{Name: "Redrive.csv", Content: []byte("a")},
		{Name: "Redrive Chunks/chunk_1.csv", Content: []byte("b")},
	})
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	assert.Equal(t, "Redrive.csv", reader.File[0].Name)
	assert.Equal(t, "Redrive Chunks/chunk_1.csv", reader.File[1].Name)

	rc, err := reader.File[1].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "b", string(content))
}

func TestChunkedZipFilesAddsChunkFolderOnlyWhenOversized(t *testing.T) {
	small := ToCSV(testHeaders, [][]string{{"ABC", "x", "1"}})
	assert.Len(t, ChunkedZipFiles("Redrive", small, 2), 1)

	rows := make([][]string, 5)
	for i := range rows {
		rows[i] = []string{"ABC", "x", fmt.Sprintf("%d", i)}
	}
	large := ToCSV(testHeaders, rows)
	files := ChunkedZipFiles("Redrive", large, 2)
	require.Len(t, files, 4)
	assert.Equal(t, "Redrive.csv", files[0].Name)
	assert.Equal(t, "Redrive Chunks/chunk_1.csv", files[1].Name)
	assert.Equal(t, "Redrive Chunks/chunk_3.csv", files[3].Name)
}

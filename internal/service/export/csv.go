package export

import "strings"

// ToCSV serializes rows in the CAM upload wire format: header joined by
// commas, then every field wrapped in double quotes unconditionally, rows
// joined by a bare \n. Embedded quotes are not escaped; the bulk uploader
// round-trips this exact shape and RFC 4180 escaping would break files
// produced by the existing tooling.
func ToCSV(headers []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, row := range rows {
		fields := make([]string, len(headers))
		for i := range headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			fields[i] = `"` + value + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// DefaultChunkRows is the upload size limit the chunkers split at.
const DefaultChunkRows = 1000

// SplitChunks splits a serialized CSV into chunks of at most maxRows data
// rows each, repeating the header line in every chunk. A CSV with no data
// rows yields no chunks.
func SplitChunks(csv string, maxRows int) []string {
	if maxRows <= 0 {
		maxRows = DefaultChunkRows
	}
	lines := strings.Split(csv, "\n")
	if len(lines) < 2 {
		return nil
	}
	header := lines[0]
	dataRows := lines[1:]
	chunks := make([]string, 0, (len(dataRows)+maxRows-1)/maxRows)
	for start := 0; start < len(dataRows); start += maxRows {
		end := start + maxRows
		if end > len(dataRows) {
			end = len(dataRows)
		}
		chunk := append([]string{header}, dataRows[start:end]...)
		chunks = append(chunks, strings.Join(chunk, "\n"))
	}
	return chunks
}

// DataRowCount reports the number of non-header lines in a serialized CSV.
func DataRowCount(csv string) int {
	if strings.TrimSpace(csv) == "" {
		return 0
	}
	return len(strings.Split(csv, "\n")) - 1
}

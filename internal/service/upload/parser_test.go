package upload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/cam-cli/internal/service/export"
	"github.com/storeops/cam-cli/internal/service/project"
)

func uploadCSV(rows [][]string) []byte {
	return []byte(export.ToCSV(project.UploadHeaders, rows))
}

func TestParseCSVAcceptsCanonicalUpload(t *testing.T) {
	content := uploadCSV([][]string{
		{"ABC", "Milk", "123", "Limited", "50", "", "Enabled", "", ""},
		{"", "", "", "", "", "", "", "", ""},
		{"DEF", "Eggs", "456", "Unlimited", "0", "", "Disabled", "", ""},
	})

	table, err := ParseCSV(content, Options{ValidateHeader: true})
	require.NoError(t, err)
	assert.Equal(t, project.UploadHeaders, table.Header)
	require.Len(t, table.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "ABC", table.Rows[0][0])
	assert.Equal(t, "456", table.Rows[1][2])
}

func TestParseCSVRejectsHeaderMismatch(t *testing.T) {
	content := []byte("Store,PLU\n\"ABC\",\"123\"")
	_, err := ParseCSV(content, Options{ValidateHeader: true})
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestParseCSVSkipsValidationWhenDisabled(t *testing.T) {
	content := []byte("Store,PLU\n\"ABC\",\"123\"")
	table, err := ParseCSV(content, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Store", "PLU"}, table.Header)
	require.Len(t, table.Rows, 1)
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, err := ParseCSV(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseXLSXRoundTrip(t *testing.T) {
	payload, err := export.BuildWorkbook("Sheet1", project.UploadHeaders, [][]string{
		{"ABC", "Milk", "123", "Limited", "50", "", "Enabled", "", ""},
	})
	require.NoError(t, err)

	table, err := ParseXLSX(payload, Options{ValidateHeader: true})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "123", table.Rows[0][2])
}

func TestParseDispatchesOnExtension(t *testing.T) {
	content := uploadCSV([][]string{{"ABC", "Milk", "123", "Limited", "50", "", "Enabled", "", ""}})
	table, err := Parse("upload.CSV", content, Options{ValidateHeader: true})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	_, err = Parse("upload.txt", content, Options{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported upload file type"))
}

func TestValidateTrackingDates(t *testing.T) {
	assert.NoError(t, ValidateTrackingDates("", ""))
	assert.NoError(t, ValidateTrackingDates("01/02/2026", "01/09/2026"))
	assert.Error(t, ValidateTrackingDates("01/02/2026", ""))
	assert.Error(t, ValidateTrackingDates("", "01/09/2026"))
}

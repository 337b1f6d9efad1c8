package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbookRoundTrip(t *testing.T) {
	payload, err := BuildWorkbook("Audit History", []string{"Store", "PLU"}, [][]string{
		{"ABC", "123"},
		{"DEF", "456"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	rows, err := f.GetRows("Audit History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Store", "PLU"}, rows[0])
	assert.Equal(t, []string{"ABC", "123"}, rows[1])
	assert.Equal(t, []string{"DEF", "456"}, rows[2])
}

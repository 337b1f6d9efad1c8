package desync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/cam-cli/internal/domain"
)

func camItem(store, scanCode, name string, andonEnabled bool) domain.ItemAvailability {
	return domain.ItemAvailability{
		StoreID:        store,
		WfmScanCode:    scanCode,
		ItemName:       name,
		AndonCordState: andonEnabled,
	}
}

func TestDetectFlagsBothDesyncPolarities(t *testing.T) {
	items := []domain.ItemAvailability{
		camItem("ABC", "4011", "Bananas", false),
		camItem("ABC", "4012", "Limes", true),
		camItem("ABC", "4013", "Kale", true),
		camItem("ABC", "4014", "Leeks", false),
	}
	listings := []ListingRecord{
		{StoreTLC: "ABC", ScanCode: "4011", Status: "Inactive"}, // disabled + inactive: desync
		{StoreTLC: "ABC", ScanCode: "4012", Status: "Active"},   // enabled + active: desync
		{StoreTLC: "ABC", ScanCode: "4013", Status: "Inactive"}, // enabled + inactive: consistent
		{StoreTLC: "ABC", ScanCode: "4014", Status: "Active"},   // disabled + active: consistent
	}

	result := NewDetector(nil).Detect(items, listings)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "4011", result.Rows[0].ScanCode)
	assert.Equal(t, "Disabled", result.Rows[0].AndonCord)
	assert.Equal(t, "Andon Disabled but listing Inactive", result.Rows[0].Mismatch)
	assert.Equal(t, "4012", result.Rows[1].ScanCode)
	assert.Equal(t, "Andon Enabled but listing Active", result.Rows[1].Mismatch)
}

func TestDetectCountsUnmatchedSides(t *testing.T) {
	items := []domain.ItemAvailability{
		camItem("ABC", "4011", "Bananas", false),
		camItem("ABC", "9999", "Mystery", false),
	}
	listings := []ListingRecord{
		{StoreTLC: "ABC", ScanCode: "4011", Status: "Active"},
		{StoreTLC: "DEF", ScanCode: "4011", Status: "Active"},
	}

	result := NewDetector(nil).Detect(items, listings)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 1, result.UnmatchedItems)
	assert.Equal(t, 1, result.UnmatchedListings)
}

func TestDetectJoinKeyIgnoresCaseAndWhitespace(t *testing.T) {
	items := []domain.ItemAvailability{camItem("abc", "4011", "Bananas", false)}
	listings := []ListingRecord{{StoreTLC: " ABC ", ScanCode: "4011", Status: "inactive"}}

	result := NewDetector(nil).Detect(items, listings)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "inactive", result.Rows[0].ListingStatus)
}

func TestDetectIgnoresUnknownListingStatus(t *testing.T) {
	items := []domain.ItemAvailability{camItem("ABC", "4011", "Bananas", false)}
	listings := []ListingRecord{{StoreTLC: "ABC", ScanCode: "4011", Status: "Suppressed"}}

	result := NewDetector(nil).Detect(items, listings)
	assert.Empty(t, result.Rows)
}

func TestParseListingTableResolvesAliases(t *testing.T) {
	header := []string{"SKU", "Listing Status", "Store"}
	rows := [][]string{
		{"4011", "Active", "ABC"},
		{"", "", ""},
		{"4012", "Inactive", "DEF"},
	}

	records, err := ParseListingTable(header, rows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ListingRecord{StoreTLC: "ABC", ScanCode: "4011", Status: "Active"}, records[0])
	assert.Equal(t, ListingRecord{StoreTLC: "DEF", ScanCode: "4012", Status: "Inactive"}, records[1])
}

func TestParseListingTableMissingColumn(t *testing.T) {
	_, err := ParseListingTable([]string{"SKU", "Store"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing status")
}

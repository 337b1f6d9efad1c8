package desync

import (
	"fmt"
	"strings"
)

// Listing export column aliases, matched case-insensitively. Merchant
// exports are not consistent about naming between report generations.
var (
	storeAliases  = []string{"store - 3 letter code", "store", "store code", "store tlc"}
	scanAliases   = []string{"item plu/upc", "plu/upc", "wfm scan code", "sku", "scan code"}
	statusAliases = []string{"listing status", "status"}
)

// ParseListingTable maps a parsed sheet into listing records. The header row
// is resolved by alias so differently-generated exports all load.
func ParseListingTable(header []string, rows [][]string) ([]ListingRecord, error) {
	storeIdx, err := resolveColumn(header, storeAliases)
	if err != nil {
		return nil, err
	}
	scanIdx, err := resolveColumn(header, scanAliases)
	if err != nil {
		return nil, err
	}
	statusIdx, err := resolveColumn(header, statusAliases)
	if err != nil {
		return nil, err
	}

	records := make([]ListingRecord, 0, len(rows))
	for _, row := range rows {
		record := ListingRecord{
			StoreTLC: cellAt(row, storeIdx),
			ScanCode: cellAt(row, scanIdx),
			Status:   cellAt(row, statusIdx),
		}
		if record.StoreTLC == "" && record.ScanCode == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func resolveColumn(header []string, aliases []string) (int, error) {
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if normalized == alias {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("listing export is missing a %q column", aliases[0])
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

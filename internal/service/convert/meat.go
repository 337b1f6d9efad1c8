package convert

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/service/project"
)

// Block header signature: columns 1-4 of a meat allocation sheet header row,
// lowercased. Column 0 holds the item name and varies per block.
var blockSignature = []string{"item#", "plu/upc", "vin", "head/case"}

// storeColumnOffset is where store-code columns begin in a block header.
const storeColumnOffset = 5

// Summary columns that sit among the store codes and must not be unpivoted.
var excludedColumns = map[string]bool{
	"grand total":                true,
	"2024 order":                 true,
	"to allocate":                true,
	"avg case weight":            true,
	"cases/pallet":               true,
	"pallet total":               true,
	"weight total":               true,
	"2024 order ndc":             true,
	"dc inventory":               true,
	"new allo total":             true,
	"reduce":                     true,
	"pr store":                   true,
	"":                           true,
	"poet for the hawaii stores": true,
}

// Options carries the fields the allocation sheet does not contain.
type Options struct {
	AndonCord string
	// StartDate and EndDate are ISO dates (YYYY-MM-DD) converted to the
	// MM/DD/YYYY format the upload schema wants.
	StartDate string
	EndDate   string
}

// Converter unpivots meat allocation sheets into upload rows. Allocation
// sheets are wide: one row per item, one column per store, repeated in
// blocks each led by its own header row.
type Converter struct {
	logger *zap.Logger
}

func NewConverter(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{logger: logger}
}

// Convert scans raw sheet rows for header blocks and unpivots every data row
// under each block into one upload row per store column. Rows without a
// PLU/UPC are dropped, matching the upstream importer's requirement that
// every upload row identify an item.
func (c *Converter) Convert(rawRows [][]string, opts Options) []project.Row {
	blocks := groupBlocks(rawRows)
	startDate := formatISODate(opts.StartDate)
	endDate := formatISODate(opts.EndDate)

	rows := make([]project.Row, 0)
	for _, block := range blocks {
		stores := storeColumns(block.header)
		for _, dataRow := range block.data {
			itemName := cellAt(dataRow, 0)
			plu := pluFromRow(block.header, dataRow)
			if plu == "" {
				continue
			}
			for _, store := range stores {
				inventory, ok := inventoryValue(cellAt(dataRow, store.index))
				if !ok {
					continue
				}
				rows = append(rows, project.Row{
					store.code,
					itemName,
					plu,
					"Limited",
					inventory,
					"",
					opts.AndonCord,
					startDate,
					endDate,
				})
			}
		}
	}
	c.logger.Info("meat allocation sheet converted",
		zap.Int("blocks", len(blocks)),
		zap.Int("upload_rows", len(rows)),
	)
	return rows
}

type block struct {
	header []string
	data   [][]string
}

// groupBlocks drops title rows (one nonempty cell or fewer) and splits the
// remainder into blocks at each header-signature row.
func groupBlocks(rawRows [][]string) []block {
	blocks := make([]block, 0)
	var current *block
	for _, row := range rawRows {
		if nonEmptyCells(row) <= 1 {
			continue
		}
		if matchesSignature(row) {
			if current != nil {
				blocks = append(blocks, *current)
			}
			header := make([]string, len(row))
			for i, cell := range row {
				header[i] = strings.ToLower(strings.TrimSpace(cell))
			}
			current = &block{header: header}
			continue
		}
		if current != nil {
			current.data = append(current.data, row)
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func matchesSignature(row []string) bool {
	if len(row) < storeColumnOffset {
		return false
	}
	for i, want := range blockSignature {
		if strings.ToLower(strings.TrimSpace(row[i+1])) != want {
			return false
		}
	}
	return true
}

type storeColumn struct {
	code  string
	index int
}

func storeColumns(header []string) []storeColumn {
	columns := make([]storeColumn, 0)
	for i := storeColumnOffset; i < len(header); i++ {
		if excludedColumns[header[i]] {
			continue
		}
		columns = append(columns, storeColumn{code: strings.ToUpper(header[i]), index: i})
	}
	return columns
}

func pluFromRow(header []string, row []string) string {
	for i, key := range header {
		if key == "plu/upc" {
			value := cellAt(row, i)
			if strings.EqualFold(value, "plu/upc") {
				return ""
			}
			return value
		}
	}
	return ""
}

// inventoryValue strips thousands separators, rounds to two decimal places
// and renders without trailing zeros. Blank cells become "0"; cells that do
// not parse as numbers disqualify the row.
func inventoryValue(cell string) (string, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return "0", true
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64), true
}

// formatISODate converts YYYY-MM-DD to MM/DD/YYYY, passing through anything
// that is not an ISO date.
func formatISODate(isoDate string) string {
	parts := strings.Split(isoDate, "-")
	if isoDate == "" || len(parts) != 3 {
		return isoDate
	}
	return parts[1] + "/" + parts[2] + "/" + parts[0]
}

func nonEmptyCells(row []string) int {
	count := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			count++
		}
	}
	return count
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

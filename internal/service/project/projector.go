package project

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/storeops/cam-cli/internal/domain"
)

// UploadHeaders is the canonical upload-file column order. Every CSV the CAM
// bulk uploader accepts uses exactly these nine columns.
var UploadHeaders = []string{
	"Store - 3 Letter Code",
	"Item Name",
	"Item PLU/UPC",
	"Availability",
	"Current Inventory",
	"Sales Floor Capacity",
	"Andon Cord",
	"Tracking Start Date",
	"Tracking End Date",
}

// UploadHeaderLine is the header row as it appears in upload files.
var UploadHeaderLine = strings.Join(UploadHeaders, ",")

const maxInventory = 10000

// ClampInventory renders the Current Inventory column. Unlimited items are
// always "0"; Limited quantities clamp to [0, 10000] with non-numeric input
// defaulting to 0.
func ClampInventory(inventoryStatus string, quantity any) string {
	if inventoryStatus == "Unlimited" {
		return "0"
	}
	parsed := parseIntLoose(quantity)
	if parsed < 0 {
		parsed = 0
	}
	if parsed > maxInventory {
		parsed = maxInventory
	}
	return strconv.Itoa(parsed)
}

// parseIntLoose mimics parseInt-then-default: leading integer digits parse,
// everything else is 0.
func parseIntLoose(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case int:
		return v
	case float64:
		return int(v)
	case string:
		return parseIntPrefix(v)
	default:
		return parseIntPrefix(fmt.Sprintf("%v", v))
	}
}

func parseIntPrefix(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	end := 0
	if s[0] == '-' || s[0] == '+' {
		end = 1
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	parsed, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return parsed
}

// Row is one projected upload-file row, keyed by UploadHeaders order.
type Row [9]string

// Fields returns the row as a slice in column order.
func (r Row) Fields() []string {
	return r[:]
}

// Context carries the per-feature knobs applied to every projected row.
type Context struct {
	// AndonValue overrides the Andon Cord column when ForceAndon is set.
	ForceAndon bool
	AndonValue string
	// Tracking dates are empty unless the calling feature supplies them.
	TrackingStartDate string
	TrackingEndDate   string
}

// Project maps one raw availability record into the upload-row schema.
// Malformed upstream data becomes empty columns rather than an error.
func Project(item domain.ItemAvailability, pctx Context) Row {
	andon := domain.AndonLabel(item.Andon)
	if pctx.ForceAndon {
		andon = pctx.AndonValue
	}
	return Row{
		item.StoreID,
		item.ItemName,
		item.WfmScanCode,
		item.InventoryStatus,
		ClampInventory(item.InventoryStatus, item.CurrentInventoryQuantity),
		"",
		andon,
		pctx.TrackingStartDate,
		pctx.TrackingEndDate,
	}
}

// TogglePair is the redrive projection: the same row with the recorded andon
// state (restore) and with its logical opposite (redrive).
type TogglePair struct {
	Restore Row
	Redrive Row
}

// ProjectToggle maps one record into its restore/redrive row pair using the
// andonCordState flag the redrive flow keys off.
func ProjectToggle(item domain.ItemAvailability, pctx Context) TogglePair {
	current := domain.AndonLabel(item.AndonCordState)
	opposite := domain.ToggleAndon(current)

	base := Project(item, Context{
		TrackingStartDate: pctx.TrackingStartDate,
		TrackingEndDate:   pctx.TrackingEndDate,
	})
	restore := base
	restore[6] = current
	redrive := base
	redrive[6] = opposite
	return TogglePair{Restore: restore, Redrive: redrive}
}

// ProjectAll projects a record set in order.
func ProjectAll(items []domain.ItemAvailability, pctx Context) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, Project(item, pctx))
	}
	return rows
}

package desync

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/domain"
)

// Listing-status values as they appear in the merchant listing export.
const (
	ListingActive   = "Active"
	ListingInactive = "Inactive"
)

// ReportHeaders is the desync report column order.
var ReportHeaders = []string{
	"Store - 3 Letter Code",
	"Item Name",
	"Item PLU/UPC",
	"Andon Cord",
	"Listing Status",
	"Mismatch",
}

// ListingRecord is one row of the merchant listing-status export.
type ListingRecord struct {
	StoreTLC string
	ScanCode string
	Status   string
}

// ReportRow is one detected mismatch between CAM and the listing export.
type ReportRow struct {
	StoreTLC      string
	ItemName      string
	ScanCode      string
	AndonCord     string
	ListingStatus string
	Mismatch      string
}

// Fields returns the row in ReportHeaders order.
func (r ReportRow) Fields() []string {
	return []string{r.StoreTLC, r.ItemName, r.ScanCode, r.AndonCord, r.ListingStatus, r.Mismatch}
}

// Result carries the detected mismatches plus join bookkeeping.
type Result struct {
	Rows []ReportRow
	// UnmatchedListings counts listing rows with no CAM counterpart.
	UnmatchedListings int
	// UnmatchedItems counts CAM items absent from the listing export.
	UnmatchedItems int
}

// Detector joins CAM availability against a listing-status export and flags
// the state pairs that should never coexist.
type Detector struct {
	logger *zap.Logger
}

func NewDetector(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{logger: logger}
}

// Detect joins on (store, scan code). A pair is desynced when the andon cord
// is disabled while the listing is inactive, or enabled while the listing is
// active: in both cases one system believes the item is sellable and the
// other does not.
func (d *Detector) Detect(items []domain.ItemAvailability, listings []ListingRecord) Result {
	byKey := make(map[string]ListingRecord, len(listings))
	for _, listing := range listings {
		byKey[joinKey(listing.StoreTLC, listing.ScanCode)] = listing
	}

	result := Result{Rows: make([]ReportRow, 0)}
	matched := make(map[string]bool, len(items))
	for _, item := range items {
		key := joinKey(item.StoreID, item.WfmScanCode)
		listing, ok := byKey[key]
		if !ok {
			result.UnmatchedItems++
			continue
		}
		matched[key] = true
		if !isDesynced(item.AndonCordState, listing.Status) {
			continue
		}
		result.Rows = append(result.Rows, ReportRow{
			StoreTLC:      item.StoreID,
			ItemName:      item.ItemName,
			ScanCode:      item.WfmScanCode,
			AndonCord:     domain.AndonLabel(item.AndonCordState),
			ListingStatus: listing.Status,
			Mismatch:      describeMismatch(item.AndonCordState),
		})
	}
	result.UnmatchedListings = len(listings) - len(matched)

	d.logger.Info("desync detection complete",
		zap.Int("items", len(items)),
		zap.Int("listings", len(listings)),
		zap.Int("mismatches", len(result.Rows)),
		zap.Int("unmatched_items", result.UnmatchedItems),
		zap.Int("unmatched_listings", result.UnmatchedListings),
	)
	return result
}

func isDesynced(andonEnabled bool, listingStatus string) bool {
	switch normalizeStatus(listingStatus) {
	case ListingInactive:
		return !andonEnabled
	case ListingActive:
		return andonEnabled
	default:
		return false
	}
}

func describeMismatch(andonEnabled bool) string {
	if andonEnabled {
		return fmt.Sprintf("Andon %s but listing %s", domain.AndonEnabled, ListingActive)
	}
	return fmt.Sprintf("Andon %s but listing %s", domain.AndonDisabled, ListingInactive)
}

func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return ListingActive
	case "inactive":
		return ListingInactive
	default:
		return strings.TrimSpace(raw)
	}
}

func joinKey(storeTLC, scanCode string) string {
	return strings.ToUpper(strings.TrimSpace(storeTLC)) + "/" + strings.TrimSpace(scanCode)
}

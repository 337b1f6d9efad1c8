package domain

// StoreRecord stores one flattened store-directory entry.
type StoreRecord struct {
	StoreTLC   string `json:"storeTLC"`
	StoreName  string `json:"storeName"`
	RegionCode string `json:"regionCode"`
	RegionRaw  string `json:"regionRaw"`
	State      string `json:"state"`
}

// ItemAvailability stores the raw item-availability payload for one
// store/scan-code pair. Only a subset of fields is read; unknown upstream
// fields are dropped.
type ItemAvailability struct {
	StoreID                  string `json:"storeId"`
	WfmScanCode              string `json:"wfmScanCode"`
	ItemName                 string `json:"itemName"`
	InventoryStatus          string `json:"inventoryStatus"`
	CurrentInventoryQuantity any    `json:"currentInventoryQuantity"`
	Andon                    bool   `json:"andon"`
	AndonCordState           bool   `json:"andonCordState"`
	ReservedQuantity         any    `json:"reservedQuantity"`
	SalesFloorCapacity       any    `json:"salesFloorCapacity"`
	WfmoaReservedQuantity    any    `json:"wfmoaReservedQuantity"`
	HasAndonEnabledComponent any    `json:"hasAndonEnabledComponent"`
	IsMultiChannel           any    `json:"isMultiChannel"`
	ASIN                     string `json:"asin"`
	MerchantID               string `json:"merchantId"`
}

// AuditEntry stores one audit-history event for an item.
type AuditEntry struct {
	NewValue      string `json:"newValue"`
	PreviousValue string `json:"previousValue"`
	UpdateReason  string `json:"updateReason"`
	UpdatedAt     string `json:"updatedAt"`
	UpdatedBy     string `json:"updatedBy"`
}

// AndonState values as written into upload files.
const (
	AndonEnabled  = "Enabled"
	AndonDisabled = "Disabled"
)

// AndonLabel maps the raw boolean flag to its upload-file label.
func AndonLabel(enabled bool) string {
	if enabled {
		return AndonEnabled
	}
	return AndonDisabled
}

// ToggleAndon returns the logical opposite of an upload-file andon label.
// Toggling twice restores the original value.
func ToggleAndon(label string) string {
	if label == AndonEnabled {
		return AndonDisabled
	}
	return AndonEnabled
}

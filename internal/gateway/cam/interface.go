package cam

import (
	"context"

	"github.com/storeops/cam-cli/internal/domain"
)

// AuthContext stores the browser-session cookies forwarded on upstream calls.
// CAM has no token auth of its own; everything rides on the host session.
type AuthContext struct {
	Cookies []string
}

// HasCredentials reports whether any cookie was provided.
func (a AuthContext) HasCredentials() bool {
	return len(a.Cookies) > 0
}

// StoresInformation is the nested region -> state -> stores directory payload.
type StoresInformation map[string]map[string][]domain.StoreRecord

// Page stores pagination context for the items-availability endpoint.
type Page struct {
	Number int
	Size   int
}

// API describes all CAM upstream operations used by the CLI.
type API interface {
	Environment() string
	StoresInformation(ctx context.Context, auth AuthContext) (StoresInformation, error)
	ItemsAvailability(ctx context.Context, storeIDs []string, page Page, auth AuthContext) ([]domain.ItemAvailability, error)
	ItemAvailability(ctx context.Context, storeID, scanCode string, auth AuthContext) (*domain.ItemAvailability, error)
	AuditHistory(ctx context.Context, storeID, scanCode string, auth AuthContext) ([]domain.AuditEntry, error)
}

package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

// SelectionMode controls how the store directory is filtered.
type SelectionMode string

const (
	SelectAll      SelectionMode = "all"
	SelectByStore  SelectionMode = "store"
	SelectByRegion SelectionMode = "region"
)

// Selection names the target stores for one operation. Codes are matched
// case-sensitively against store TLCs or derived region short-codes.
type Selection struct {
	Mode  SelectionMode
	Codes []string
}

// ParseSelection builds a Selection from CLI inputs.
func ParseSelection(all bool, stores, regions []string) (Selection, error) {
	storeCodes := normalizeCodes(stores)
	regionCodes := normalizeCodes(regions)
	switch {
	case all:
		if len(storeCodes) > 0 || len(regionCodes) > 0 {
			return Selection{}, fmt.Errorf("--all cannot be combined with --stores/--regions")
		}
		return Selection{Mode: SelectAll}, nil
	case len(storeCodes) > 0 && len(regionCodes) > 0:
		return Selection{}, fmt.Errorf("use either --stores or --regions, not both")
	case len(storeCodes) > 0:
		return Selection{Mode: SelectByStore, Codes: storeCodes}, nil
	case len(regionCodes) > 0:
		return Selection{Mode: SelectByRegion, Codes: regionCodes}, nil
	default:
		return Selection{}, fmt.Errorf("no stores selected: pass --all, --stores, or --regions")
	}
}

// Matches reports whether a directory record falls inside the selection.
func (s Selection) Matches(record domain.StoreRecord) bool {
	switch s.Mode {
	case SelectAll:
		return true
	case SelectByStore:
		return s.hasCode(record.StoreTLC)
	case SelectByRegion:
		return s.hasCode(record.RegionCode)
	default:
		return false
	}
}

func (s Selection) hasCode(code string) bool {
	for _, candidate := range s.Codes {
		if candidate == code {
			return true
		}
	}
	return false
}

// Resolver turns selections into store TLC lists against the live directory.
type Resolver struct {
	api    camgateway.API
	logger *zap.Logger
}

// NewResolver creates a directory resolver.
func NewResolver(api camgateway.API, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{api: api, logger: logger}
}

// List fetches and flattens the full store directory.
func (r *Resolver) List(ctx context.Context, auth camgateway.AuthContext) ([]domain.StoreRecord, error) {
	directory, err := r.api.StoresInformation(ctx, auth)
	if err != nil {
		return nil, err
	}
	records := make([]domain.StoreRecord, 0)
	for regionKey, states := range directory {
		regionCode := domain.DeriveRegionCode(regionKey)
		for state, stores := range states {
			for _, store := range stores {
				store.RegionRaw = regionKey
				store.RegionCode = regionCode
				store.State = state
				records = append(records, store)
			}
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StoreTLC < records[j].StoreTLC
	})
	r.logger.Debug("store directory flattened",
		zap.Int("regions", len(directory)),
		zap.Int("stores", len(records)),
	)
	return records, nil
}

// Resolve returns the store TLCs matching a selection. The directory request
// is issued once regardless of mode; the mode only affects post-filtering.
func (r *Resolver) Resolve(ctx context.Context, selection Selection, auth camgateway.AuthContext) ([]string, error) {
	records, err := r.List(ctx, auth)
	if err != nil {
		return nil, err
	}
	switch selection.Mode {
	case SelectAll, SelectByStore, SelectByRegion:
	default:
		return nil, fmt.Errorf("unknown selection mode %q", selection.Mode)
	}

	storeIDs := make([]string, 0, len(records))
	for _, record := range records {
		if selection.Matches(record) {
			storeIDs = append(storeIDs, record.StoreTLC)
		}
	}
	r.logger.Debug("selection resolved",
		zap.String("mode", string(selection.Mode)),
		zap.Int("matched", len(storeIDs)),
	)
	return storeIDs, nil
}

func normalizeCodes(raw []string) []string {
	seen := map[string]struct{}{}
	codes := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			code := strings.TrimSpace(part)
			if code == "" {
				continue
			}
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}

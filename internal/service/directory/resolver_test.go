package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

type stubAPI struct {
	camgateway.API
	directory camgateway.StoresInformation
	err       error
	calls     int
}

func (s *stubAPI) StoresInformation(context.Context, camgateway.AuthContext) (camgateway.StoresInformation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.directory, nil
}

func testDirectory() camgateway.StoresInformation {
	return camgateway.StoresInformation{
		"NA-US-West": {
			"CA": {{StoreTLC: "ABC", StoreName: "Alpha"}, {StoreTLC: "DEF", StoreName: "Delta"}},
			"WA": {{StoreTLC: "GHI", StoreName: "Gamma"}},
		},
		"NA-US-Northeast": {
			"NY": {{StoreTLC: "JKL", StoreName: "Kilo"}},
		},
	}
}

func TestResolveAllFlattensEveryStore(t *testing.T) {
	api := &stubAPI{directory: testDirectory()}
	resolver := NewResolver(api, nil)

	storeIDs, err := resolver.Resolve(context.Background(), Selection{Mode: SelectAll}, camgateway.AuthContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storeIDs) != 4 {
		t.Fatalf("expected 4 stores, got %v", storeIDs)
	}
	if api.calls != 1 {
		t.Fatalf("expected one directory request, got %d", api.calls)
	}
}

func TestResolveByStoreMatchesTLCsCaseSensitively(t *testing.T) {
	resolver := NewResolver(&stubAPI{directory: testDirectory()}, nil)

	storeIDs, err := resolver.Resolve(
		context.Background(),
		Selection{Mode: SelectByStore, Codes: []string{"ABC", "abc", "JKL"}},
		camgateway.AuthContext{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storeIDs) != 2 || storeIDs[0] != "ABC" || storeIDs[1] != "JKL" {
		t.Fatalf("unexpected store ids %v", storeIDs)
	}
}

func TestResolveByRegionUsesDerivedShortCode(t *testing.T) {
	resolver := NewResolver(&stubAPI{directory: testDirectory()}, nil)

	storeIDs, err := resolver.Resolve(
		context.Background(),
		Selection{Mode: SelectByRegion, Codes: []string{"West"}},
		camgateway.AuthContext{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storeIDs) != 3 {
		t.Fatalf("expected all West stores, got %v", storeIDs)
	}
}

func TestResolvePropagatesDirectoryFailure(t *testing.T) {
	wantErr := errors.New("boom")
	resolver := NewResolver(&stubAPI{err: wantErr}, nil)

	_, err := resolver.Resolve(context.Background(), Selection{Mode: SelectAll}, camgateway.AuthContext{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected directory error to propagate, got %v", err)
	}
}

func TestListAnnotatesRegionAndState(t *testing.T) {
	resolver := NewResolver(&stubAPI{directory: testDirectory()}, nil)

	records, err := resolver.List(context.Background(), camgateway.AuthContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byTLC := map[string]domain.StoreRecord{}
	for _, record := range records {
		byTLC[record.StoreTLC] = record
	}
	abc := byTLC["ABC"]
	if abc.RegionRaw != "NA-US-West" || abc.RegionCode != "West" || abc.State != "CA" {
		t.Fatalf("unexpected annotation: %+v", abc)
	}
}

func TestParseSelectionRejectsConflicts(t *testing.T) {
	if _, err := ParseSelection(true, []string{"ABC"}, nil); err == nil {
		t.Fatal("expected error when --all combined with --stores")
	}
	if _, err := ParseSelection(false, []string{"ABC"}, []string{"West"}); err == nil {
		t.Fatal("expected error when both stores and regions provided")
	}
	if _, err := ParseSelection(false, nil, nil); err == nil {
		t.Fatal("expected error when nothing selected")
	}
	selection, err := ParseSelection(false, []string{"ABC, DEF", "ABC"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selection.Codes) != 2 {
		t.Fatalf("expected deduplicated codes, got %v", selection.Codes)
	}
}

package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

type stubAPI struct {
	camgateway.API

	mu           sync.Mutex
	historyCalls int
	failFirst    int
	failWith     error
	history      map[string][]domain.AuditEntry
	items        map[string]*domain.ItemAvailability
	itemErr      error
}

func (s *stubAPI) AuditHistory(_ context.Context, storeID, scanCode string, _ camgateway.AuthContext) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	if s.failFirst > 0 {
		s.failFirst--
		return nil, s.failWith
	}
	return s.history[storeID+"/"+scanCode], nil
}

func (s *stubAPI) ItemAvailability(_ context.Context, storeID, scanCode string, _ camgateway.AuthContext) (*domain.ItemAvailability, error) {
	if s.itemErr != nil {
		return nil, s.itemErr
	}
	return s.items[storeID+"/"+scanCode], nil
}

func fastOptions() Options {
	return Options{
		ItemDelay: time.Millisecond,
		ASINDelay: time.Millisecond,
		Now:       func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func item(store, scanCode string) domain.ItemAvailability {
	return domain.ItemAvailability{StoreID: store, WfmScanCode: scanCode}
}

func TestPullCompilesOneRowPerAuditEvent(t *testing.T) {
	api := &stubAPI{history: map[string][]domain.AuditEntry{
		"ABC/4011": {
			{NewValue: "Enabled", PreviousValue: "Disabled", UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-10T08:00:00Z", UpdatedBy: "jdoe"},
			{NewValue: "0", PreviousValue: "", UpdateReason: "Inventory adjusted", UpdatedAt: "2024-06-01T08:00:00Z", UpdatedBy: "system"},
		},
	}}
	puller := NewPuller(api, nil)

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, fastOptions())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ABC", rows[0].StoreID)
	assert.Equal(t, "4011", rows[0].WfmScanCode)
	assert.Equal(t, "Andon Cord enabled", rows[0].UpdateReason)
	assert.Equal(t, "N/A", rows[1].PreviousValue, "empty previous value should render as N/A")
	assert.Equal(t, "Not Requested", rows[0].ASIN)
}

func TestPullAgeUsesMostRecentAndonEnabledEvent(t *testing.T) {
	api := &stubAPI{history: map[string][]domain.AuditEntry{
		"ABC/4011": {
			{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-13T12:00:00Z"},
			{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-05-01T12:00:00Z"},
		},
	}}
	puller := NewPuller(api, nil)

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, fastOptions())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "2 days ago", rows[0].TimeSinceAndonEnabled)
}

func TestPullAgeFallsBackToEarliestEntry(t *testing.T) {
	api := &stubAPI{history: map[string][]domain.AuditEntry{
		"ABC/4011": {
			{UpdateReason: "Inventory adjusted", UpdatedAt: "2024-06-14T12:00:00Z"},
			{UpdateReason: "Inventory adjusted", UpdatedAt: "2024-06-05T12:00:00Z"},
		},
	}}
	puller := NewPuller(api, nil)

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, fastOptions())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "10 days ago (since earliest entry)", rows[0].TimeSinceAndonEnabled)
}

func TestPullRetriesRateLimitedHistory(t *testing.T) {
	api := &stubAPI{
		failFirst: 2,
		failWith:  &camgateway.UpstreamRequestError{Target: "WfmCamBackendService.GetAuditHistory", StatusCode: 429},
		history: map[string][]domain.AuditEntry{
			"ABC/4011": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
		},
	}
	puller := NewPuller(api, nil)

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, fastOptions())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, api.historyCalls)
}

func TestPullSkipsItemOnNonRateLimitError(t *testing.T) {
	api := &stubAPI{
		failFirst: 1,
		failWith:  &camgateway.UpstreamRequestError{Target: "WfmCamBackendService.GetAuditHistory", StatusCode: 500},
		history: map[string][]domain.AuditEntry{
			"DEF/5000": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
		},
	}
	puller := NewPuller(api, nil)

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011"), item("DEF", "5000")}, camgateway.AuthContext{}, fastOptions())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DEF", rows[0].StoreID, "failed item should be skipped, not abort the walk")
}

func TestPullResolvesASINWhenRequested(t *testing.T) {
	api := &stubAPI{
		history: map[string][]domain.AuditEntry{
			"ABC/4011": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
		},
		items: map[string]*domain.ItemAvailability{
			"ABC/4011": {StoreID: "ABC", WfmScanCode: "4011", ASIN: "B000TESTME"},
		},
	}
	puller := NewPuller(api, nil)
	opts := fastOptions()
	opts.ResolveASIN = true

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B000TESTME", rows[0].ASIN)
}

func TestPullMarksASINErrorWhenLookupFails(t *testing.T) {
	api := &stubAPI{
		history: map[string][]domain.AuditEntry{
			"ABC/4011": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
		},
		itemErr: &camgateway.UpstreamRequestError{StatusCode: 500},
	}
	puller := NewPuller(api, nil)
	opts := fastOptions()
	opts.ResolveASIN = true

	rows, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, opts)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "error", rows[0].ASIN)
}

func TestPullStopsOnCancelledContext(t *testing.T) {
	api := &stubAPI{history: map[string][]domain.AuditEntry{}}
	puller := NewPuller(api, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := puller.Pull(ctx, []domain.ItemAvailability{item("ABC", "4011")}, camgateway.AuthContext{}, fastOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
	assert.Zero(t, api.historyCalls)
}

func TestPullReportsProgress(t *testing.T) {
	api := &stubAPI{history: map[string][]domain.AuditEntry{
		"ABC/4011": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
		"DEF/5000": {{UpdateReason: "Andon Cord enabled", UpdatedAt: "2024-06-14T12:00:00Z"}},
	}}
	puller := NewPuller(api, nil)
	opts := fastOptions()
	var seen []int
	opts.OnProgress = func(done, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, done)
	}

	_, err := puller.Pull(context.Background(), []domain.ItemAvailability{item("ABC", "4011"), item("DEF", "5000")}, camgateway.AuthContext{}, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

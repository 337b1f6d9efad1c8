package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

const (
	// andonEnabledReason is the audit event marking an andon-cord activation.
	andonEnabledReason = "Andon Cord enabled"

	defaultItemDelay      = 500 * time.Millisecond
	defaultASINDelay      = 100 * time.Millisecond
	defaultMaxAttempts429 = 5

	asinNotRequested = "Not Requested"
	asinError        = "error"
)

// ReportHeaders is the audit report column order.
var ReportHeaders = []string{
	"Store",
	"PLU/UPC",
	"New Value",
	"Previous Value",
	"Update Reason",
	"Updated At",
	"Updated By",
	"Time Since Andon Enabled",
	"ASIN",
}

// ReportRow is one compiled audit report line.
type ReportRow struct {
	StoreID               string
	WfmScanCode           string
	NewValue              string
	PreviousValue         string
	UpdateReason          string
	UpdatedAt             string
	UpdatedBy             string
	TimeSinceAndonEnabled string
	ASIN                  string
}

// Fields returns the row in ReportHeaders order.
func (r ReportRow) Fields() []string {
	return []string{
		r.StoreID,
		r.WfmScanCode,
		r.NewValue,
		r.PreviousValue,
		r.UpdateReason,
		r.UpdatedAt,
		r.UpdatedBy,
		r.TimeSinceAndonEnabled,
		r.ASIN,
	}
}

// Options tunes one audit pull.
type Options struct {
	// ResolveASIN issues one extra singular-item request per audited item.
	// Noticeably slower; off by default.
	ResolveASIN bool
	ItemDelay   time.Duration
	ASINDelay   time.Duration
	MaxAttempts int
	OnProgress  func(done, total int)
	// Now overrides the clock for age computation (tests).
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ItemDelay <= 0 {
		o.ItemDelay = defaultItemDelay
	}
	if o.ASINDelay <= 0 {
		o.ASINDelay = defaultASINDelay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts429
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Puller compiles audit-history reports for item sets.
type Puller struct {
	api    camgateway.API
	logger *zap.Logger
}

// NewPuller creates an audit history puller.
func NewPuller(api camgateway.API, logger *zap.Logger) *Puller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Puller{api: api, logger: logger}
}

// Pull walks items sequentially (the audit endpoint rate-limits aggressively)
// and compiles one report row per audit event. Items whose history cannot be
// fetched are skipped; cancellation between items stops the walk and returns
// whatever was compiled.
func (p *Puller) Pull(ctx context.Context, items []domain.ItemAvailability, auth camgateway.AuthContext, opts Options) ([]ReportRow, error) {
	opts = opts.withDefaults()
	compiled := make([]ReportRow, 0)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			p.logger.Info("audit pull cancelled",
				zap.Int("completed_items", i),
				zap.Int("total_items", len(items)),
			)
			return compiled, err
		}
		if err := sleepCtx(ctx, opts.ItemDelay); err != nil {
			return compiled, err
		}

		entries, err := p.fetchHistoryWithBackoff(ctx, item, auth, opts)
		if err != nil {
			p.logger.Warn("audit history fetch failed, skipping item",
				zap.String("store", item.StoreID),
				zap.String("scan_code", item.WfmScanCode),
				zap.Error(err),
			)
			continue
		}

		age := timeSinceAndonEnabled(entries, opts.Now())
		asin := asinNotRequested
		if opts.ResolveASIN {
			asin = p.resolveASIN(ctx, item, auth, opts)
		}
		for _, entry := range entries {
			previous := entry.PreviousValue
			if previous == "" {
				previous = "N/A"
			}
			compiled = append(compiled, ReportRow{
				StoreID:               item.StoreID,
				WfmScanCode:           item.WfmScanCode,
				NewValue:              entry.NewValue,
				PreviousValue:         previous,
				UpdateReason:          entry.UpdateReason,
				UpdatedAt:             entry.UpdatedAt,
				UpdatedBy:             entry.UpdatedBy,
				TimeSinceAndonEnabled: age,
				ASIN:                  asin,
			})
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(items))
		}
	}
	return compiled, nil
}

// fetchHistoryWithBackoff retries only rate-limited responses, waiting
// 2^attempt * 100ms before each retry.
func (p *Puller) fetchHistoryWithBackoff(ctx context.Context, item domain.ItemAvailability, auth camgateway.AuthContext, opts Options) ([]domain.AuditEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		entries, err := p.api.AuditHistory(ctx, item.StoreID, item.WfmScanCode, auth)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		var upstreamErr *camgateway.UpstreamRequestError
		if !errors.As(err, &upstreamErr) || !upstreamErr.IsRateLimited() {
			return nil, err
		}
		backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
		p.logger.Debug("audit endpoint rate limited, backing off",
			zap.String("store", item.StoreID),
			zap.String("scan_code", item.WfmScanCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt),
		)
		if err := sleepCtx(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (p *Puller) resolveASIN(ctx context.Context, item domain.ItemAvailability, auth camgateway.AuthContext, opts Options) string {
	if err := sleepCtx(ctx, opts.ASINDelay); err != nil {
		return asinError
	}
	detail, err := p.api.ItemAvailability(ctx, item.StoreID, item.WfmScanCode, auth)
	if err != nil || detail == nil || detail.ASIN == "" {
		return asinError
	}
	return detail.ASIN
}

// timeSinceAndonEnabled renders the age of the most recent "Andon Cord
// enabled" event in whole days, falling back to the earliest entry when no
// such event exists.
func timeSinceAndonEnabled(entries []domain.AuditEntry, now time.Time) string {
	if len(entries) == 0 {
		return ""
	}
	enabled := make([]domain.AuditEntry, 0)
	for _, entry := range entries {
		if entry.UpdateReason == andonEnabledReason {
			enabled = append(enabled, entry)
		}
	}
	if len(enabled) > 0 {
		sort.Slice(enabled, func(i, j int) bool {
			return parseEntryTime(enabled[i].UpdatedAt).After(parseEntryTime(enabled[j].UpdatedAt))
		})
		return fmt.Sprintf("%d days ago", wholeDays(now, parseEntryTime(enabled[0].UpdatedAt)))
	}
	earliest := parseEntryTime(entries[0].UpdatedAt)
	for _, entry := range entries[1:] {
		if t := parseEntryTime(entry.UpdatedAt); t.Before(earliest) {
			earliest = t
		}
	}
	return fmt.Sprintf("%d days ago (since earliest entry)", wholeDays(now, earliest))
}

func parseEntryTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func wholeDays(now, then time.Time) int {
	if then.IsZero() || then.After(now) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

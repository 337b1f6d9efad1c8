package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/domain"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
)

// Defaults match the long-standing bulk download tuning. The backend has
// shipped with several nearby values over time, so everything is overridable
// per call.
const (
	DefaultBatchSize       = 10
	DefaultPageSize        = 10000
	DefaultMaxAttempts     = 10
	DefaultInterBatchDelay = 100 * time.Millisecond
	DefaultConcurrency     = 4
)

// Progress reports completed stores out of the selected total. Updates arrive
// from the worker pool, so percentages may jump rather than increment when
// batches run concurrently.
type Progress struct {
	CompletedStores int
	TotalStores     int
}

// Options tunes one FetchAll run.
type Options struct {
	BatchSize       int
	PageSize        int
	MaxAttempts     int
	InterBatchDelay time.Duration
	// Concurrency bounds in-flight batch requests. 1 gives sequential
	// awaiting with deterministic progress steps.
	Concurrency int
	// PLUFilter keeps only records whose scan code is listed. Filtering is
	// client-side, applied after each batch response.
	PLUFilter []string
	OnProgress func(Progress)
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InterBatchDelay <= 0 {
		o.InterBatchDelay = DefaultInterBatchDelay
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Result carries the flattened records plus non-fatal findings.
type Result struct {
	Items []domain.ItemAvailability
	// FailedBatches lists store batches that exhausted their attempt budget
	// and contributed nothing.
	FailedBatches [][]string
	// Warnings flags suspected single-page truncation per batch.
	Warnings []string
}

// Fetcher fans paginated item-availability requests out over store batches.
type Fetcher struct {
	api    camgateway.API
	logger *zap.Logger
}

// NewFetcher creates a batched item fetcher.
func NewFetcher(api camgateway.API, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{api: api, logger: logger}
}

// Partition splits storeIDs into consecutive chunks of at most batchSize,
// preserving order. Concatenating the chunks reproduces the input.
func Partition(storeIDs []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batches := make([][]string, 0, (len(storeIDs)+batchSize-1)/batchSize)
	for start := 0; start < len(storeIDs); start += batchSize {
		end := start + batchSize
		if end > len(storeIDs) {
			end = len(storeIDs)
		}
		batches = append(batches, storeIDs[start:end])
	}
	return batches
}

// FetchAll resolves availability records for every store batch. A batch that
// exhausts its retries contributes an empty result; only malformed-response
// errors and cancellation abort the whole run.
func (f *Fetcher) FetchAll(ctx context.Context, storeIDs []string, auth camgateway.AuthContext, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	batches := Partition(storeIDs, opts.BatchSize)

	pluFilter := map[string]struct{}{}
	for _, plu := range opts.PLUFilter {
		pluFilter[plu] = struct{}{}
	}

	type batchOutcome struct {
		index    int
		items    []domain.ItemAvailability
		failed   bool
		warning  string
		fatalErr error
	}

	outcomes := make([]batchOutcome, len(batches))
	jobs := make(chan int)
	var completed int
	var progressM sync.Mutex

	reportProgress := func(storesDone int) {
		if opts.OnProgress == nil {
			return
		}
		progressM.Lock()
		completed += storesDone
		snapshot := Progress{CompletedStores: completed, TotalStores: len(storeIDs)}
		progressM.Unlock()
		opts.OnProgress(snapshot)
	}

	runBatch := func(index int) batchOutcome {
		batch := batches[index]
		items, err := retry(ctx, RetryPolicy{MaxAttempts: opts.MaxAttempts, Delay: opts.InterBatchDelay}, isFatalFetchError, func() ([]domain.ItemAvailability, error) {
			return f.api.ItemsAvailability(ctx, batch, camgateway.Page{Number: 0, Size: opts.PageSize}, auth)
		})
		if err != nil {
			if isFatalFetchError(err) {
				return batchOutcome{index: index, failed: true, fatalErr: err}
			}
			f.logger.Warn("store batch exhausted retry budget",
				zap.Strings("stores", batch),
				zap.Int("attempts", opts.MaxAttempts),
				zap.Error(err),
			)
			return batchOutcome{index: index, failed: true}
		}
		outcome := batchOutcome{index: index, items: filterByPLU(items, pluFilter)}
		if len(items) == opts.PageSize {
			outcome.warning = fmt.Sprintf(
				"batch %v returned exactly %d rows; additional pages are not requested and may have been dropped",
				batch, opts.PageSize,
			)
		}
		f.logger.Debug("store batch fetched",
			zap.Strings("stores", batch),
			zap.Int("records", len(items)),
		)
		return outcome
	}

	concurrency := opts.Concurrency
	if concurrency > len(batches) && len(batches) > 0 {
		concurrency = len(batches)
	}

	var wg sync.WaitGroup
	var fatalErr error
	var fatalM sync.Mutex
	for worker := 0; worker < concurrency; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				outcome := runBatch(index)
				outcomes[outcome.index] = outcome
				if outcome.fatalErr != nil {
					fatalM.Lock()
					if fatalErr == nil {
						fatalErr = outcome.fatalErr
					}
					fatalM.Unlock()
					continue
				}
				reportProgress(len(batches[outcome.index]))
			}
		}()
	}

dispatch:
	for index := range batches {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- index:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fatalErr != nil {
		return nil, fatalErr
	}

	result := &Result{Items: make([]domain.ItemAvailability, 0)}
	for _, outcome := range outcomes {
		result.Items = append(result.Items, outcome.items...)
		if outcome.failed {
			result.FailedBatches = append(result.FailedBatches, batches[outcome.index])
		}
		if outcome.warning != "" {
			result.Warnings = append(result.Warnings, outcome.warning)
		}
	}
	return result, nil
}

// isFatalFetchError separates shape errors (abort the run) from transport
// errors (retry, then skip the batch).
func isFatalFetchError(err error) bool {
	return errors.Is(err, camgateway.ErrMalformedResponse)
}

func filterByPLU(items []domain.ItemAvailability, pluFilter map[string]struct{}) []domain.ItemAvailability {
	if len(pluFilter) == 0 {
		return items
	}
	kept := make([]domain.ItemAvailability, 0, len(items))
	for _, item := range items {
		if _, ok := pluFilter[item.WfmScanCode]; ok {
			kept = append(kept, item)
		}
	}
	return kept
}

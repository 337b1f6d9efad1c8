package cam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/storeops/cam-cli/internal/domain"
)

const (
	// EnvironmentProd and EnvironmentGamma select the CAM backend stage.
	EnvironmentProd  = "prod"
	EnvironmentGamma = "gamma"

	targetStoresInformation = "WfmCamBackendService.GetStoresInformation"
	targetItemsAvailability = "WfmCamBackendService.GetItemsAvailability"
	targetItemAvailability  = "WfmCamBackendService.GetItemAvailability"
	targetAuditHistory      = "WfmCamBackendService.GetAuditHistory"

	defaultContentType = "application/x-amz-json-1.0"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// ErrUpstream indicates CAM backend failure.
var ErrUpstream = errors.New("[CAM] error when trying to get response from cam backend")

// ErrMalformedResponse indicates a 2xx payload missing its required top-level
// key. These are terminal: callers abort instead of retrying.
var ErrMalformedResponse = errors.New("[CAM] malformed response from cam backend")

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIBaseURL returns the stage endpoint for an environment name. Anything
// that is not gamma resolves to prod, matching the hostname sniff the CAM
// web app itself uses.
func APIBaseURL(environment string) string {
	env := EnvironmentProd
	if strings.Contains(strings.ToLower(strings.TrimSpace(environment)), EnvironmentGamma) {
		env = EnvironmentGamma
	}
	return "https://" + env + ".cam.wfm.amazon.dev/api/"
}

// Client queries the CAM backend rpc endpoint.
type Client struct {
	httpClient     HTTPClient
	baseURL        string
	environment    string
	minRequestGap  time.Duration
	requestWindowM sync.Mutex
	nextRequestAt  time.Time
	verboseOutput  io.Writer
	verboseOutputM sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL replaces the resolved stage endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithEnvironment selects the backend stage (gamma or prod).
func WithEnvironment(environment string) Option {
	return func(c *Client) {
		c.environment = environment
		c.baseURL = APIBaseURL(environment)
	}
}

// WithRequestMinInterval limits request burst by enforcing minimum delay between upstream calls.
func WithRequestMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval < 0 {
			interval = 0
		}
		c.minRequestGap = interval
	}
}

// WithVerboseOutput enables per-request trace output for upstream HTTP calls.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a production CAM gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		environment: EnvironmentProd,
		baseURL:     APIBaseURL(EnvironmentProd),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Environment returns the resolved stage name.
func (c *Client) Environment() string {
	if strings.Contains(strings.ToLower(c.environment), EnvironmentGamma) {
		return EnvironmentGamma
	}
	return EnvironmentProd
}

// SetEnvironment switches the backend stage after construction. Commands use
// it to honor a per-invocation --env override.
func (c *Client) SetEnvironment(environment string) {
	c.environment = environment
	c.baseURL = APIBaseURL(environment)
}

// SetVerboseOutput sets destination for verbose HTTP request trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.verboseOutputM.Lock()
	c.verboseOutput = out
	c.verboseOutputM.Unlock()
}

func (c *Client) headers(target string, extra map[string]string, auth *AuthContext) map[string]string {
	headers := map[string]string{
		"accept":          "*/*",
		"accept-language": "en-US,en;q=0.9",
		"content-type":    defaultContentType,
		"user-agent":      defaultUserAgent,
		"x-amz-target":    target,
	}
	if auth != nil && len(auth.Cookies) > 0 {
		headers["Cookie"] = strings.Join(auth.Cookies, "; ")
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func (c *Client) doTargetRequest(ctx context.Context, target string, body any, headers map[string]string) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if err := c.waitForRequestSlot(ctx); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	c.tracef("[http] -> POST %s target=%s body_bytes=%d", c.baseURL, target, len(payload))

	res, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Target: target,
			URL:    c.baseURL,
			Cause:  err,
		}
		c.traceRequestDone(target, 0, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}
	defer func() {
		_ = res.Body.Close()
	}()

	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Target:     target,
			URL:        c.baseURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("read response body: %w", err),
		}
		c.traceRequestDone(target, res.StatusCode, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		upstreamErr := &UpstreamRequestError{
			Target:     target,
			URL:        c.baseURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
		c.traceRequestDone(target, res.StatusCode, len(rawResponse), startedAt, upstreamErr)
		return nil, upstreamErr
	}

	var decoded map[string]any
	if len(rawResponse) > 0 {
		if err := json.Unmarshal(rawResponse, &decoded); err != nil {
			upstreamErr := &UpstreamRequestError{
				Target:     target,
				URL:        c.baseURL,
				StatusCode: res.StatusCode,
				Body:       string(rawResponse),
				Cause:      fmt.Errorf("decode response body: %w", err),
			}
			c.traceRequestDone(target, res.StatusCode, len(rawResponse), startedAt, upstreamErr)
			return nil, upstreamErr
		}
	} else {
		decoded = map[string]any{}
	}

	c.traceRequestDone(target, res.StatusCode, len(rawResponse), startedAt, nil)
	return decoded, nil
}

func (c *Client) traceRequestDone(target string, statusCode int, responseBytes int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- POST %s target=%s error=%v duration=%s", c.baseURL, target, reqErr, duration)
		return
	}
	c.tracef(
		"[http] <- POST %s target=%s status=%d duration=%s bytes=%d",
		c.baseURL,
		target,
		statusCode,
		duration,
		responseBytes,
	)
}

func (c *Client) waitForRequestSlot(ctx context.Context) error {
	interval := c.minRequestGap
	if interval <= 0 {
		return nil
	}
	for {
		c.requestWindowM.Lock()
		wait := time.Until(c.nextRequestAt)
		if wait <= 0 {
			c.nextRequestAt = time.Now().Add(interval)
			c.requestWindowM.Unlock()
			return nil
		}
		c.requestWindowM.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) tracef(format string, args ...any) {
	c.verboseOutputM.RLock()
	out := c.verboseOutput
	c.verboseOutputM.RUnlock()
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, format+"\n", args...)
}

func decodeAny[T any](value any) (T, error) {
	var out T
	payload, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

// StoresInformation returns the nested region -> state -> stores directory.
// The request body is empty regardless of any caller-side selection; filtering
// always happens after flattening.
func (c *Client) StoresInformation(ctx context.Context, auth AuthContext) (StoresInformation, error) {
	payload, err := c.doTargetRequest(ctx, targetStoresInformation, map[string]any{}, c.headers(targetStoresInformation, nil, &auth))
	if err != nil {
		return nil, err
	}
	raw, ok := payload["storesInformation"]
	if !ok {
		return nil, fmt.Errorf("%w: missing storesInformation", ErrMalformedResponse)
	}
	directory, err := decodeAny[StoresInformation](raw)
	if err != nil {
		return nil, fmt.Errorf("decode stores information: %w", err)
	}
	return directory, nil
}

// ItemsAvailability returns one page of availability records for a batch of
// store TLCs.
func (c *Client) ItemsAvailability(ctx context.Context, storeIDs []string, page Page, auth AuthContext) ([]domain.ItemAvailability, error) {
	body := map[string]any{
		"filterContext": map[string]any{
			"storeIds": storeIDs,
		},
		"paginationContext": map[string]any{
			"pageNumber": page.Number,
			"pageSize":   page.Size,
		},
	}
	payload, err := c.doTargetRequest(ctx, targetItemsAvailability, body, c.headers(targetItemsAvailability, nil, &auth))
	if err != nil {
		return nil, err
	}
	raw, ok := payload["itemsAvailability"]
	if !ok {
		return nil, fmt.Errorf("%w: missing itemsAvailability", ErrMalformedResponse)
	}
	items, err := decodeAny[[]domain.ItemAvailability](raw)
	if err != nil {
		return nil, fmt.Errorf("decode items availability: %w", err)
	}
	return items, nil
}

// ItemAvailability returns the singular availability payload for one
// store/scan-code pair, used for ASIN and merchant-id resolution.
func (c *Client) ItemAvailability(ctx context.Context, storeID, scanCode string, auth AuthContext) (*domain.ItemAvailability, error) {
	body := map[string]any{
		"storeId":     storeID,
		"wfmScanCode": scanCode,
	}
	extra := map[string]string{
		"Referer": c.itemPageReferer(storeID, scanCode),
	}
	payload, err := c.doTargetRequest(ctx, targetItemAvailability, body, c.headers(targetItemAvailability, extra, &auth))
	if err != nil {
		return nil, err
	}
	raw, ok := payload["itemAvailability"]
	if !ok {
		return nil, fmt.Errorf("%w: missing itemAvailability", ErrMalformedResponse)
	}
	item, err := decodeAny[domain.ItemAvailability](raw)
	if err != nil {
		return nil, fmt.Errorf("decode item availability: %w", err)
	}
	if strings.TrimSpace(item.StoreID) == "" {
		item.StoreID = storeID
	}
	if strings.TrimSpace(item.WfmScanCode) == "" {
		item.WfmScanCode = scanCode
	}
	return &item, nil
}

// AuditHistory returns all audit events recorded for one store/scan-code
// pair. Rate limiting surfaces as an UpstreamRequestError with status 429 so
// callers can back off.
func (c *Client) AuditHistory(ctx context.Context, storeID, scanCode string, auth AuthContext) ([]domain.AuditEntry, error) {
	body := map[string]any{
		"storeId":     storeID,
		"wfmScanCode": scanCode,
	}
	extra := map[string]string{
		"Referer": c.itemPageReferer(storeID, scanCode),
	}
	payload, err := c.doTargetRequest(ctx, targetAuditHistory, body, c.headers(targetAuditHistory, extra, &auth))
	if err != nil {
		return nil, err
	}
	raw, ok := payload["auditHistory"]
	if !ok {
		return nil, fmt.Errorf("%w: missing auditHistory", ErrMalformedResponse)
	}
	entries, err := decodeAny[[]domain.AuditEntry](raw)
	if err != nil {
		return nil, fmt.Errorf("decode audit history: %w", err)
	}
	return entries, nil
}

func (c *Client) itemPageReferer(storeID, scanCode string) string {
	return "https://" + c.Environment() + ".cam.wfm.amazon.dev/store/" + storeID + "/item/" + scanCode
}

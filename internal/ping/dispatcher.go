package ping

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/supabase-keepalive/config"
)

// Dispatcher sends one lightweight read request per target and classifies
// the outcome. It holds no per-invocation state and is safe for concurrent use.
type Dispatcher struct {
	client      *http.Client
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client. The client's own Timeout is
// left untouched; the per-call timeout is applied through the request context.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

// WithConcurrency caps the number of in-flight pings. Zero or less means one
// goroutine per target; one pings sequentially.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// NewDispatcher creates a Dispatcher whose pings are each bounded by timeout.
func NewDispatcher(timeout time.Duration, logger *slog.Logger, opts ...Option) *Dispatcher {
	if timeout <= 0 {
		timeout = config.DefaultPingTimeout
	}

	d := &Dispatcher{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// PingAll pings every target and returns exactly one result per target, in
// target order. A failing target never stops the others.
func (d *Dispatcher) PingAll(ctx context.Context, targets []config.ProjectTarget) []Result {
	results := make([]Result, len(targets))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}

	for i, target := range targets {
		g.Go(func() error {
			results[i] = d.Ping(ctx, target)
			return nil
		})
	}

	// Workers never return an error.
	_ = g.Wait()

	return results
}

// Budget is the longest PingAll may take for n targets: one timeout when all
// pings run at once, one timeout per batch when concurrency is capped.
func (d *Dispatcher) Budget(n int) time.Duration {
	if d.concurrency <= 0 || n <= d.concurrency {
		return d.timeout
	}

	batches := (n + d.concurrency - 1) / d.concurrency
	return time.Duration(batches) * d.timeout
}

// Ping sends GET {url}/rest/v1/{table}?select=id&limit=1 to a single target.
func (d *Dispatcher) Ping(ctx context.Context, target config.ProjectTarget) Result {
	result := Result{Name: target.Name}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := newRequest(callCtx, target)
	if err != nil {
		result.Error = KindInvalidRequest
		result.Detail = truncate(err.Error())
		return result
	}

	start := time.Now()
	res, err := d.client.Do(req)
	if err != nil {
		result.LatencyMS = latencyMS(time.Since(start))
		result.Error = classify(ctx, err)
		result.Detail = truncate(err.Error())
		d.logger.Debug("Ping transport failure",
			slog.String("project", target.Name),
			slog.String("kind", string(result.Error)),
			slog.Any("err", err))
		return result
	}
	defer res.Body.Close()

	result.StatusCode = res.StatusCode
	result.OK = res.StatusCode >= 200 && res.StatusCode < 300

	if result.OK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
	} else {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxDetail+1))
		result.Error = KindUnexpectedStatus
		result.Detail = truncate(string(body))
	}

	result.LatencyMS = latencyMS(time.Since(start))
	return result
}

// RequestURL builds the read URL for a target.
func RequestURL(target config.ProjectTarget) string {
	table := target.Table
	if table == "" {
		table = config.DefaultTable
	}

	return strings.TrimRight(target.BaseURL, "/") + "/rest/v1/" + url.PathEscape(table) + "?select=id&limit=1"
}

func newRequest(ctx context.Context, target config.ProjectTarget) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RequestURL(target), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", target.Credential)
	req.Header.Set("Authorization", "Bearer "+target.Credential)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/econcal/internal/event"
	"github.com/pfrederiksen/econcal/internal/logger"
)

const (
	DefaultBaseURL = "https://www.forexfactory.com"
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	Timeout        = 30 * time.Second

	calendarPath = "/calendar"
	detailPath   = "/calendar/details/1-"
)

// ErrStatus wraps unexpected HTTP status codes
var ErrStatus = errors.New("unexpected status code")

// ErrClosed is returned by Fetch after Close
var ErrClosed = errors.New("session closed")

// Options configures a Session
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64 // page loads per second; <= 0 disables pacing
	Burst         int
	MaxRetries    int
	Backoff       time.Duration
	MaxBackoff    time.Duration
	Details       bool // follow each row's detail panel
}

// Page is the result of fetching one unit
type Page struct {
	Rows    []event.RawRow
	Skipped []RowResult
}

// Session handles fetching calendar pages for one scrape run
type Session struct {
	http    *resty.Client
	limiter *rate.Limiter
	opts    Options
	closed  bool
}

// NewSession creates a Session. Call Close when the run ends.
func NewSession(opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = opts.Backoff
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	client.SetTimeout(opts.Timeout)

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Session{
		http:    client,
		limiter: rate.NewLimiter(limit, opts.Burst),
		opts:    opts,
	}, nil
}

// Close releases the session's connections. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.http.GetClient().CloseIdleConnections()
	return nil
}

// Fetch loads the calendar page for req and extracts its rows. An error means
// the page itself could not be loaded or holds no calendar; row-level problems
// are reported in Page.Skipped instead.
func (s *Session) Fetch(ctx context.Context, req Request) (*Page, error) {
	if s.closed {
		return nil, ErrClosed
	}

	query := req.Query()
	body, err := s.get(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("loading calendar %s: %w", query, err)
	}

	results, err := ParseCalendar(bytes.NewReader(body), req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar %s: %w", query, err)
	}

	page := &Page{Rows: make([]event.RawRow, 0, len(results))}
	for _, res := range results {
		if res.Skipped() {
			logger.Debug("Skipped calendar row", logger.Fields{
				"query":  query,
				"reason": res.Reason,
			})
			page.Skipped = append(page.Skipped, res)
			continue
		}

		row := *res.Row
		if s.opts.Details && res.EventID != "" {
			if req.KnownDetail == nil || !req.KnownDetail(row.Key()) {
				row.Details = s.fetchDetails(ctx, res.EventID, row)
			}
		}
		page.Rows = append(page.Rows, row)
	}

	return page, nil
}

// fetchDetails loads one detail panel. Failures are logged and leave the row
// without detail; the next run can backfill it.
func (s *Session) fetchDetails(ctx context.Context, id string, row event.RawRow) event.Details {
	body, err := s.get(ctx, detailPath+id, "")
	if err == nil {
		var details event.Details
		details, err = ParseDetails(bytes.NewReader(body))
		if err == nil {
			return details
		}
	}

	logger.Warn("Could not load event detail", logger.Fields{
		"event_id": id,
		"currency": row.Currency,
		"event":    row.Title,
	}, err)
	return nil
}

// get performs a paced GET, retrying transient failures with exponential backoff.
func (s *Session) get(ctx context.Context, path, query string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.Backoff
	policy.MaxInterval = s.opts.MaxBackoff
	policy.MaxElapsedTime = 0

	retries := s.opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)

	var body []byte
	op := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		res, err := s.http.R().
			SetContext(ctx).
			SetQueryString(query).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		code := res.StatusCode()
		if code != http.StatusOK {
			err := fmt.Errorf("%w: %d", ErrStatus, code)
			if retryable(code) {
				return err
			}
			return backoff.Permanent(err)
		}

		body = res.Body()
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug("Retrying page load", logger.Fields{
			"path":  path,
			"query": query,
			"wait":  wait.String(),
		})
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// retryable reports whether a status code is worth another attempt
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

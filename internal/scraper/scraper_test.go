package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/econcal/internal/event"
)

const singleDayPage = `<table class="calendar__table">
<tr class="calendar__row calendar__row--day-breaker"><td>Sun <span>Jan 5</span></td></tr>
<tr class="calendar__row" data-event-id="101">
  <td class="calendar__cell calendar__time">12:30am</td>
  <td class="calendar__cell calendar__currency">JPY</td>
  <td class="calendar__cell calendar__impact"><span title="Low Impact Expected"></span></td>
  <td class="calendar__cell calendar__event">Household Spending y/y</td>
  <td class="calendar__cell calendar__actual">1.2%</td>
  <td class="calendar__cell calendar__forecast">1.0%</td>
  <td class="calendar__cell calendar__previous">0.8%</td>
</tr>
<tr class="calendar__row calendar__row--no-event"><td>No events</td></tr>
</table>`

const detailPage = `<table class="calendarspecs">
<tr><td>Source</td><td>Statistics Bureau</td></tr>
</table>`

func testSession(t *testing.T, url string, details bool) *Session {
	t.Helper()
	s, err := NewSession(Options{
		BaseURL:    url,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
		Details:    details,
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func jan5Request() Request {
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	return Request{Start: day, End: day}
}

func TestFetch(t *testing.T) {
	var detailCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar":
			if got := r.URL.Query().Get("day"); got != "jan5.2025" {
				t.Errorf("expected day=jan5.2025, got %q", got)
			}
			if ua := r.Header.Get("User-Agent"); ua != UserAgent {
				t.Errorf("expected default user agent, got %q", ua)
			}
			w.Write([]byte(singleDayPage))
		case "/calendar/details/1-101":
			detailCalls.Add(1)
			w.Write([]byte(detailPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := testSession(t, server.URL, true)

	page, err := s.Fetch(context.Background(), jan5Request())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(page.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(page.Rows))
	}
	if len(page.Skipped) != 1 {
		t.Errorf("expected 1 skipped row, got %d", len(page.Skipped))
	}
	if got := page.Rows[0].Details.Encode(); got != "Source: Statistics Bureau" {
		t.Errorf("unexpected details %q", got)
	}
	if detailCalls.Load() != 1 {
		t.Errorf("expected 1 detail request, got %d", detailCalls.Load())
	}
}

func TestFetchSkipsKnownDetail(t *testing.T) {
	var detailCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/calendar/details/") {
			detailCalls.Add(1)
			w.Write([]byte(detailPage))
			return
		}
		w.Write([]byte(singleDayPage))
	}))
	defer server.Close()

	s := testSession(t, server.URL, true)

	req := jan5Request()
	req.KnownDetail = func(k event.Key) bool {
		return k.Currency == "JPY" && k.Title == "Household Spending y/y"
	}

	page, err := s.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if detailCalls.Load() != 0 {
		t.Errorf("expected no detail requests, got %d", detailCalls.Load())
	}
	if len(page.Rows) != 1 || len(page.Rows[0].Details) != 0 {
		t.Errorf("expected one row without details, got %+v", page.Rows)
	}
}

func TestFetchDetailFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/calendar/details/") {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		w.Write([]byte(singleDayPage))
	}))
	defer server.Close()

	s := testSession(t, server.URL, true)

	page, err := s.Fetch(context.Background(), jan5Request())
	if err != nil {
		t.Fatalf("detail failure should not fail the page: %v", err)
	}
	if len(page.Rows) != 1 || page.Rows[0].Details != nil {
		t.Errorf("expected one row without details, got %+v", page.Rows)
	}
}

func TestFetchDetailsDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/calendar/details/") {
			t.Error("detail panel requested with details disabled")
		}
		w.Write([]byte(singleDayPage))
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	if _, err := s.Fetch(context.Background(), jan5Request()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(singleDayPage))
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	if _, err := s.Fetch(context.Background(), jan5Request()); err != nil {
		t.Fatalf("Fetch failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchPermanentStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	_, err := s.Fetch(context.Background(), jan5Request())
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt for 403, got %d", calls.Load())
	}
}

func TestFetchGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	if _, err := s.Fetch(context.Background(), jan5Request()); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	// first attempt plus MaxRetries
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchNoCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Checking your browser</body></html>`))
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	if _, err := s.Fetch(context.Background(), jan5Request()); !errors.Is(err, ErrNoCalendar) {
		t.Errorf("expected ErrNoCalendar, got %v", err)
	}
}

func TestFetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(singleDayPage))
	}))
	defer server.Close()

	s := testSession(t, server.URL, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Fetch(ctx, jan5Request()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFetchAfterClose(t *testing.T) {
	s := testSession(t, "http://127.0.0.1:0", false)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := s.Fetch(context.Background(), jan5Request()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client with no request pacing at a fake API
func newTestClient(t *testing.T, pageSize int, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(pageSize)
	c.baseURL = srv.URL
	c.rateLimiter.minInterval = 0
	return c
}

func activitiesPage(n int, typ string, metersEach float64) []Activity {
	page := make([]Activity, n)
	for i := range page {
		page[i] = Activity{ID: int64(i + 1), SportType: typ, Distance: metersEach}
	}
	return page
}

func TestFetchAllStopsAfterShortPage(t *testing.T) {
	var requests int
	client := newTestClient(t, 200, func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.NoError(t, json.NewEncoder(w).Encode(activitiesPage(3, "Run", 5000)))
	})

	got, err := client.FetchAll(context.Background(), "tok", date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, requests, "a short page is the last page")
}

func TestFetchAllFullPageThenEmpty(t *testing.T) {
	var requests int
	client := newTestClient(t, 200, func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1:
			require.NoError(t, json.NewEncoder(w).Encode(activitiesPage(200, "Run", 1000)))
		default:
			fmt.Fprint(w, "[]")
		}
	})

	got, err := client.FetchAll(context.Background(), "tok", date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)
	assert.Len(t, got, 200, "all first-page records included")
	assert.Equal(t, 2, requests, "exactly two page requests issued")
}

func TestFetchAllAccumulatesPages(t *testing.T) {
	client := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 1, 2:
			require.NoError(t, json.NewEncoder(w).Encode(activitiesPage(2, "Ride", 10000)))
		default:
			require.NoError(t, json.NewEncoder(w).Encode(activitiesPage(1, "Ride", 10000)))
		}
	})

	got, err := client.FetchAll(context.Background(), "tok", date(2026, 1, 1), date(2026, 1, 31))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestFetchAllDiscardsPartialResultOnFailure(t *testing.T) {
	client := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 1 {
			require.NoError(t, json.NewEncoder(w).Encode(activitiesPage(2, "Run", 1000)))
			return
		}
		http.Error(w, `{"message":"Internal Server Error"}`, http.StatusInternalServerError)
	})

	got, err := client.FetchAll(context.Background(), "tok", date(2026, 1, 1), date(2026, 1, 31))
	require.Error(t, err)
	assert.Nil(t, got, "partial accumulation discarded for a failed fetch")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 2, fetchErr.Page)
}

func TestFetchAllWindowBoundsAreUTCMidnight(t *testing.T) {
	var after, before int64
	client := newTestClient(t, 200, func(w http.ResponseWriter, r *http.Request) {
		after, _ = strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		before, _ = strconv.ParseInt(r.URL.Query().Get("before"), 10, 64)
		fmt.Fprint(w, "[]")
	})

	// Boundary instants deliberately carry clock time and a non-UTC zone
	loc := time.FixedZone("UTC+5", 5*3600)
	start := time.Date(2026, 3, 1, 17, 45, 0, 0, loc)
	end := time.Date(2026, 3, 10, 3, 30, 0, 0, loc)

	_, err := client.FetchAll(context.Background(), "tok", start, end)
	require.NoError(t, err)

	// start 2026-03-01 17:45 +05 is 12:45 UTC, so its UTC day is Mar 1
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix(), after)
	// end 2026-03-10 03:30 +05 is Mar 9 22:30 UTC; the inclusive end day
	// Mar 9 closes at Mar 10 00:00 UTC
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Unix(), before)
}

func TestFetchAllBearerToken(t *testing.T) {
	client := newTestClient(t, 200, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer per-user-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, "[]")
	})

	_, err := client.FetchAll(context.Background(), "per-user-token", date(2026, 1, 1), date(2026, 1, 2))
	require.NoError(t, err)
}

func TestRateLimiterExhaustionFailsFast(t *testing.T) {
	rl := NewRateLimiter()
	rl.minInterval = 0
	rl.shortLimit = 2

	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))

	start := time.Now()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Less(t, time.Since(start), time.Second, "exhausted quota must not block")
}

func TestRateLimiterUpdateFromHeaders(t *testing.T) {
	rl := NewRateLimiter()

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "100,1000")
	h.Set("X-RateLimit-Usage", "42,512")
	rl.UpdateFromHeaders(h)

	short, daily := rl.Status()
	assert.Equal(t, 58, short)
	assert.Equal(t, 488, daily)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

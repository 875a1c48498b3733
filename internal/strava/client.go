package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const BaseURL = "https://www.strava.com/api/v3"

// DefaultPageSize is the number of activities requested per page; 200 is
// Strava's maximum.
const DefaultPageSize = 200

// FetchError reports a failed activity fetch. Any partially accumulated
// pages are discarded with it; a user either contributes their complete
// window or nothing this run.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching activities page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client is a Strava API client. One client is shared across athletes;
// per-athlete access tokens are supplied per call and the rate limiter
// covers the application's whole quota.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	pageSize    int
}

// NewClient creates a new Strava API client
func NewClient(pageSize int) *Client {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	return &Client{
		baseURL:     BaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: NewRateLimiter(),
		pageSize:    pageSize,
	}
}

// GetActivities fetches one page of the athlete's activities inside
// [after, before) epoch bounds.
func (c *Client) GetActivities(ctx context.Context, accessToken string, after, before int64, page int) ([]Activity, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("after", strconv.FormatInt(after, 10))
	params.Set("before", strconv.FormatInt(before, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.pageSize))

	resp, err := c.get(ctx, accessToken, "/athlete/activities", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}

	return activities, nil
}

// FetchAll retrieves the athlete's complete activity list for the
// inclusive date window. Both boundary dates are taken at UTC midnight:
// the window spans start 00:00 UTC up to but excluding the day after end.
//
// Pages are requested from 1 upward and accumulation stops at the first
// short or empty page, so a window with n activities costs at most
// ceil(n/pageSize)+1 requests. A failure on any page discards everything
// accumulated and returns a FetchError.
func (c *Client) FetchAll(ctx context.Context, accessToken string, start, end time.Time) ([]Activity, error) {
	after := midnightUTC(start).Unix()
	before := midnightUTC(end).Add(24 * time.Hour).Unix()

	var all []Activity
	for page := 1; ; page++ {
		activities, err := c.GetActivities(ctx, accessToken, after, before, page)
		if err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}

		all = append(all, activities...)

		if len(activities) < c.pageSize {
			break // Last page
		}
	}

	return all, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) get(ctx context.Context, accessToken, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// midnightUTC truncates t to 00:00 UTC of its calendar day
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

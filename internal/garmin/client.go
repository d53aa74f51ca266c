package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/banshee-data/pulse.report/internal/httputil"
	"github.com/banshee-data/pulse.report/internal/rawstore"
)

// DefaultBaseURL is the Garmin Connect API host.
const DefaultBaseURL = "https://connectapi.garmin.com"

// Garmin rejects requests without a Connect-mobile user agent.
const userAgent = "com.garmin.android.apps.connectmobile"

// Retry tuning for API calls. Attempts includes the first try.
const (
	fetchAttempts  = 4
	fetchBaseDelay = 1300 * time.Millisecond
	fetchMaxDelay  = 15 * time.Second
	fetchMaxJitter = 500 * time.Millisecond
)

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.Path, e.Code)
}

// Client calls the Garmin Connect wellness endpoints with a saved
// OAuth2 bearer token.
type Client struct {
	http       httputil.HTTPClient
	baseURL    string
	token      string
	retryDelay time.Duration

	// displayName is resolved lazily from the social profile; several
	// endpoints embed it in their path.
	displayName string
}

// NewClient returns a Client authenticated with the given bearer token.
func NewClient(hc httputil.HTTPClient, token string) *Client {
	return &Client{http: hc, baseURL: DefaultBaseURL, token: token, retryDelay: fetchBaseDelay}
}

// DisplayName returns the account's display name, fetching it from the
// social profile on first use.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	if c.displayName != "" {
		return c.displayName, nil
	}

	body, err := c.get(ctx, "/userprofile-service/socialProfile")
	if err != nil {
		return "", fmt.Errorf("fetching social profile: %w", err)
	}

	var profile struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("parsing social profile: %w", err)
	}
	if profile.DisplayName == "" {
		return "", errors.New("social profile has no displayName")
	}
	c.displayName = profile.DisplayName
	return c.displayName, nil
}

// HeartRates fetches the per-minute heart rate document for one day.
func (c *Client) HeartRates(ctx context.Context, day string) ([]byte, error) {
	dn, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(dn)+"?date="+day)
}

// StressData fetches the stress document for one day.
func (c *Client) StressData(ctx context.Context, day string) ([]byte, error) {
	return c.get(ctx, "/wellness-service/wellness/dailyStress/"+day)
}

// RespirationData fetches the respiration document for one day.
func (c *Client) RespirationData(ctx context.Context, day string) ([]byte, error) {
	return c.get(ctx, "/wellness-service/wellness/daily/respiration/"+day)
}

// SleepData fetches the sleep document for one day.
func (c *Client) SleepData(ctx context.Context, day string) ([]byte, error) {
	dn, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(dn)+"?date="+day+"&nonSleepBufferMinutes=60")
}

// UserSummary fetches the daily summary document for one day.
func (c *Client) UserSummary(ctx context.Context, day string) ([]byte, error) {
	dn, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "/usersummary-service/usersummary/daily/"+url.PathEscape(dn)+"?calendarDate="+day)
}

// BodyBattery fetches the body battery report for an inclusive day range.
func (c *Client) BodyBattery(ctx context.Context, startDay, endDay string) ([]byte, error) {
	return c.get(ctx, "/wellness-service/wellness/bodyBattery/reports/daily?startDate="+startDay+"&endDate="+endDay)
}

// FetchCategory dispatches to the endpoint behind a per-day category.
func (c *Client) FetchCategory(ctx context.Context, category, day string) ([]byte, error) {
	switch category {
	case rawstore.CategoryHeartRates:
		return c.HeartRates(ctx, day)
	case rawstore.CategoryStress:
		return c.StressData(ctx, day)
	case rawstore.CategoryRespiration:
		return c.RespirationData(ctx, day)
	case rawstore.CategorySleep:
		return c.SleepData(ctx, day)
	case rawstore.CategoryUserSummary:
		return c.UserSummary(ctx, day)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// get performs one authenticated GET with retries. Rate limits, server
// errors, and transport errors are retried; any other client error,
// expired tokens included, fails immediately.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.getOnce(ctx, path)
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(fetchMaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(fetchMaxJitter),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Path: path}
	}
	return data, nil
}

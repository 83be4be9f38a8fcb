package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"CycleSentinel/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bars API:
//
//	GET {base}/api/v1/bars?symbol=..&interval=..&range=..  -> [{timestamp,open,high,low,close}]
//	GET {base}/api/v1/quote?symbol=..&interval=..          -> {open,high,low,close}
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.Candle, error) {
	bars, err := f.fetchBars(ctx, symbol, interval, rng)
	if err != nil && interval == "1wk" {
		// API may only serve daily bars; aggregate them into ISO weeks.
		daily, dailyErr := f.fetchBars(ctx, symbol, "1d", rng)
		if dailyErr != nil {
			return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
		}
		return toCandles(resample(daily, isoWeekBuckets)), nil
	}
	if err != nil {
		return nil, err
	}
	return toCandles(bars), nil
}

func (f *RESTFetcher) FetchLatest(ctx context.Context, symbol, interval string) (model.Observation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s&interval=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(interval))
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return model.Observation{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer body.Close()

	var q restBar
	if err := json.NewDecoder(body).Decode(&q); err != nil {
		return model.Observation{}, fmt.Errorf("decode quote: %w", err)
	}
	return model.Observation{Open: q.Open, High: q.High, Low: q.Low, Close: q.Close}, nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, interval, rng string) ([]bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=%s&range=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer body.Close()

	var rows []restBar
	if err := json.NewDecoder(body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]bar, 0, len(rows))
	for _, r := range rows {
		if r.Close == 0 {
			continue
		}
		bars = append(bars, bar{
			Time:  time.Unix(r.Timestamp, 0),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *RESTFetcher) get(ctx context.Context, endpoint string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

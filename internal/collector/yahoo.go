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

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
// When RelayURL is set, requests go through an allorigins-style relay that
// returns the upstream body wrapped as {"contents": "..."}.
type YahooFetcher struct {
	Client   *http.Client
	BaseURL  string
	RelayURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy and relay.
func NewYahooFetcher(proxyURL, relayURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL:  yahooBaseURL,
		RelayURL: relayURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []interface{} `json:"open"`
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// relayEnvelope is the allorigins /get response.
type relayEnvelope struct {
	Contents string `json:"contents"`
}

// value returns vals[i] as a float, reporting false for nulls and missing entries.
func value(vals []interface{}, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	switch n := vals[i].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func (f *YahooFetcher) chartURL(symbol, interval, rng string) string {
	base := f.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		base, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))
	if f.RelayURL != "" {
		return f.RelayURL + "?url=" + url.QueryEscape(u)
	}
	return u
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]bar, error) {
	// Yahoo has no 4h bars; build them from hourly ones.
	if interval == "240m" {
		hourly, err := f.fetchChart(ctx, symbol, "60m", rng)
		if err != nil {
			return nil, err
		}
		return resample(hourly, fixedBuckets(4*time.Hour)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(symbol, interval, rng), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	if f.RelayURL != "" {
		var env relayEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("relay decode: %w", err)
		}
		if env.Contents == "" {
			return nil, fmt.Errorf("relay: empty contents")
		}
		body = []byte(env.Contents)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c, ok := value(quote.Close, i)
		if !ok {
			continue // null bars: market closed or bar still forming upstream
		}
		h, okH := value(quote.High, i)
		l, okL := value(quote.Low, i)
		if !okH || !okL {
			continue
		}
		o, _ := value(quote.Open, i)
		bars = append(bars, bar{Time: time.Unix(ts, 0), Open: o, High: h, Low: l, Close: c})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchHistory returns the completed and forming bars of the requested range, oldest first.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]model.Candle, error) {
	bars, err := f.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	return toCandles(bars), nil
}

// FetchLatest returns the newest bar of the interval as an observation.
func (f *YahooFetcher) FetchLatest(ctx context.Context, symbol, interval string) (model.Observation, error) {
	bars, err := f.fetchChart(ctx, symbol, interval, latestRange(interval))
	if err != nil {
		return model.Observation{}, err
	}
	if len(bars) == 0 {
		return model.Observation{}, fmt.Errorf("yahoo: no price data")
	}
	last := bars[len(bars)-1]
	return model.Observation{Open: last.Open, High: last.High, Low: last.Low, Close: last.Close}, nil
}

// latestRange is the smallest range that still contains a bar of the interval.
func latestRange(interval string) string {
	switch interval {
	case "1d":
		return "5d"
	case "1wk":
		return "1mo"
	case "240m":
		return "5d"
	default:
		return "1d"
	}
}

package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTFetcher_FetchHistoryAndLatest(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/v1/bars":
			assert.Equal(t, "SI=F", r.URL.Query().Get("symbol"))
			json.NewEncoder(w).Encode([]restBar{
				{Timestamp: 200, High: 12, Low: 10, Close: 11},
				{Timestamp: 100, High: 11, Low: 9, Close: 10},
				{Timestamp: 300, High: 0, Low: 0, Close: 0},
			})
		case "/api/v1/quote":
			json.NewEncoder(w).Encode(restBar{Open: 10, High: 12, Low: 9, Close: 11.5})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", time.Second)

	candles, err := f.FetchHistory(context.Background(), "SI=F", "5m", "15d")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 10.0, candles[0].Close)
	assert.Equal(t, 11.0, candles[1].Close)
	assert.Equal(t, "Bearer secret", auth)

	obs, err := f.FetchLatest(context.Background(), "SI=F", "5m")
	require.NoError(t, err)
	assert.Equal(t, 11.5, obs.Close)
	assert.Equal(t, 9.0, obs.Low)
}

func TestRESTFetcher_WeeklyFallsBackToDaily(t *testing.T) {
	monday := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") == "1wk" {
			http.Error(w, "unsupported", http.StatusBadRequest)
			return
		}
		var rows []restBar
		for i := 0; i < 10; i++ {
			rows = append(rows, restBar{
				Timestamp: monday.AddDate(0, 0, i).Unix(),
				High:      float64(20 + i),
				Low:       float64(i),
				Close:     float64(10 + i),
			})
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "", time.Second)
	candles, err := f.FetchHistory(context.Background(), "GC=F", "1wk", "5y")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 26.0, candles[0].High)
	assert.Equal(t, 0.0, candles[0].Low)
	assert.Equal(t, 16.0, candles[0].Close)
	assert.Equal(t, 19.0, candles[1].Close)
}

func TestRESTFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "", time.Second)
	_, err := f.FetchHistory(context.Background(), "GC=F", "1d", "1y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, err = f.FetchLatest(context.Background(), "GC=F", "1d")
	assert.Error(t, err)
}

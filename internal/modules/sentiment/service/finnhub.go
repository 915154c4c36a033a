package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const tokenHeader = "X-Finnhub-Token"

// Reading is one news-sentiment snapshot for a symbol.
type Reading struct {
	Bullish   float64   `json:"bullish"`
	Bearish   float64   `json:"bearish"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Score is bullish minus bearish, in [-1, 1].
func (r Reading) Score() float64 { return r.Bullish - r.Bearish }

type Config struct {
	BaseURL         string
	APIKey          string
	StrongThreshold float64
	Timeout         time.Duration
	CacheTTL        time.Duration
}

// Finnhub reads /news-sentiment. Every failure degrades to "unavailable".
type Finnhub struct {
	http  *http.Client
	cfg   Config
	cache Cache
	log   *zap.Logger
}

func NewFinnhub(cfg Config, cache Cache, log *zap.Logger) *Finnhub {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.StrongThreshold <= 0 {
		cfg.StrongThreshold = 0.6
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Finnhub{
		http:  &http.Client{Timeout: cfg.Timeout},
		cfg:   cfg,
		cache: cache,
		log:   log,
	}
}

// Sentiment returns the score, ok=false when the provider has nothing.
func (f *Finnhub) Sentiment(ctx context.Context, symbol string) (float64, bool) {
	r, err := f.reading(ctx, symbol)
	if err != nil {
		f.log.Debug("sentiment unavailable", zap.String("symbol", symbol), zap.Error(err))
		return 0, false
	}
	return r.Score(), true
}

// IsStrongNewsEvent is true when either side exceeds the threshold.
func (f *Finnhub) IsStrongNewsEvent(ctx context.Context, symbol string) bool {
	r, err := f.reading(ctx, symbol)
	if err != nil {
		return false
	}
	return r.Bullish > f.cfg.StrongThreshold || r.Bearish > f.cfg.StrongThreshold
}

func (f *Finnhub) reading(ctx context.Context, symbol string) (Reading, error) {
	key := "sentiment:" + strings.ToUpper(symbol)
	if r, ok := f.cache.Get(ctx, key); ok {
		return r, nil
	}
	r, err := f.fetch(ctx, symbol)
	if err != nil {
		return Reading{}, err
	}
	if f.cfg.CacheTTL > 0 {
		f.cache.Set(ctx, key, r, f.cfg.CacheTTL)
	}
	return r, nil
}

func (f *Finnhub) fetch(ctx context.Context, symbol string) (Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("symbol", symbol)
	u := strings.TrimRight(f.cfg.BaseURL, "/") + "/news-sentiment?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Reading{}, errors.Wrap(err, "build request")
	}
	// the key stays out of the URL so transport errors never carry it
	req.Header.Set(tokenHeader, f.cfg.APIKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return Reading{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Reading{}, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return Reading{}, fmt.Errorf("finnhub http %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Sentiment *struct {
			BullishPercent float64 `json:"bullishPercent"`
			BearishPercent float64 `json:"bearishPercent"`
		} `json:"sentiment"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return Reading{}, errors.Wrap(err, "decode")
	}
	if payload.Sentiment == nil {
		return Reading{}, fmt.Errorf("finnhub: no sentiment for %s", symbol)
	}
	return Reading{
		Bullish:   payload.Sentiment.BullishPercent,
		Bearish:   payload.Sentiment.BearishPercent,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Sentiment(context.Context, string) (float64, bool) { return 0, false }
func (Disabled) IsStrongNewsEvent(context.Context, string) bool    { return false }

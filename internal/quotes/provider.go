package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrQuoteUnavailable is returned when the upstream quote source cannot
// serve the request. Callers treat enrichment as best-effort and must not
// fail ledger reads because of it.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is a current market snapshot for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previous_close"`
	MarketCap     float64 `json:"market_cap"`
	Currency      string  `json:"currency"`
}

// Candle is one historical price bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// SearchResult is one symbol lookup hit.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange"`
}

// Provider fetches market data. The accounting engine never calls this;
// it serves only the quote endpoints and position enrichment.
type Provider interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]Candle, error)
	Search(ctx context.Context, keywords string) ([]SearchResult, error)
}

// HTTPProvider calls a quote REST API:
//
//	GET {base}/quote/{symbol}
//	GET {base}/history/{symbol}?days=N
//	GET {base}/search?q=keywords
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *HTTPProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (p *HTTPProvider) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upstream status %d", ErrQuoteUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", ErrQuoteUnavailable, err)
	}
	return nil
}

func (p *HTTPProvider) GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := p.get(ctx, "/quote/"+url.PathEscape(symbol), &q); err != nil {
		return nil, err
	}
	if q.Price == 0 {
		return nil, fmt.Errorf("%w: no price for %s", ErrQuoteUnavailable, symbol)
	}
	q.Symbol = symbol
	return &q, nil
}

func (p *HTTPProvider) GetHistory(ctx context.Context, symbol string, days int) ([]Candle, error) {
	var body struct {
		Candles []Candle `json:"candles"`
	}
	path := fmt.Sprintf("/history/%s?days=%d", url.PathEscape(symbol), days)
	if err := p.get(ctx, path, &body); err != nil {
		return nil, err
	}
	if len(body.Candles) == 0 {
		return nil, fmt.Errorf("%w: no history for %s", ErrQuoteUnavailable, symbol)
	}
	return body.Candles, nil
}

func (p *HTTPProvider) Search(ctx context.Context, keywords string) ([]SearchResult, error) {
	var body struct {
		Results []SearchResult `json:"results"`
	}
	if err := p.get(ctx, "/search?q="+url.QueryEscape(keywords), &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

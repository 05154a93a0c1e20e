package marketdata

import (
	"context"
	"fmt"
	"time"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	xhttp "StockWatch/pkg/http"
)

// Client implements QuoteProvider against a REST quote API.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
}

// New creates a quote provider client.
func New(baseURL, apiKey string, timeout time.Duration) drepo.QuoteProvider {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// wire format of the upstream quote endpoint
type quoteResponse struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Price  float64   `json:"price"`
	Closes []float64 `json:"closes"`
}

// FetchQuote fetches the current quote and recent closes for symbol.
// A timeout and an unknown symbol both surface as plain errors; the caller
// treats every failure as soft.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return models.Quote{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	if resp.Price <= 0 {
		return models.Quote{}, fmt.Errorf("fetch quote %s: no price in response", symbol)
	}

	closes := resp.Closes
	if len(closes) > models.MaxHistoryLen {
		closes = closes[len(closes)-models.MaxHistoryLen:]
	}
	name := resp.Name
	if name == "" {
		name = symbol
	}

	return models.Quote{
		Symbol:      symbol,
		DisplayName: name,
		Price:       resp.Price,
		History:     closes,
		FetchedAt:   time.Now(),
	}, nil
}

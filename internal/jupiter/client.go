package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Reference: https://station.jup.ag/docs/apis/swap-api

const (
	DefaultApiBaseUrl   = "https://quote-api.jup.ag/v6/"
	DefaultPriceBaseUrl = "https://price.jup.ag/v4/"

	quoteEndpointName            = "quote"
	swapInstructionsEndpointName = "swap-instructions"
	indexedRouteMapEndpointName  = "indexed-route-map"
	priceEndpointName            = "price"
)

type Client struct {
	baseUrl    string
	priceUrl   string
	httpClient *http.Client
	limiter    *rate.Limiter
	Log        *logrus.Logger
}

// NewClient returns a Jupiter client limited to rps requests per second.
// A non-positive rps disables limiting.
func NewClient(baseUrl, priceUrl string, rps float64, log *logrus.Logger) *Client {
	if baseUrl == "" {
		baseUrl = DefaultApiBaseUrl
	}
	if priceUrl == "" {
		priceUrl = DefaultPriceBaseUrl
	}
	if log == nil {
		log = logrus.New()
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Client{
		baseUrl:    baseUrl,
		priceUrl:   priceUrl,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(limit, 1),
		Log:        log,
	}
}

// WithHTTPClient replaces the underlying http client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "error creating http request")
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "error marshalling json request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "error creating http request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "error executing http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response body")
	}

	var apiErr APIError
	if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
		return &apiErr
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("received http status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "error unmarshalling json response")
	}
	return nil
}

package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type SwapMode string

const (
	ExactIn  SwapMode = "ExactIn"
	ExactOut SwapMode = "ExactOut"
)

// RequestOption appends a query parameter to a quote request.
type RequestOption func(url *strings.Builder)

func WithSwapMode(mode SwapMode) RequestOption {
	return func(url *strings.Builder) {
		fmt.Fprintf(url, "&swapMode=%s", mode)
	}
}

// WithDexes restricts routing to the given dex labels, e.g. "Orca V2".
func WithDexes(dexes ...string) RequestOption {
	return dexList("dexes", dexes)
}

func WithExcludeDexes(dexes ...string) RequestOption {
	return dexList("excludeDexes", dexes)
}

func dexList(param string, dexes []string) RequestOption {
	return func(u *strings.Builder) {
		if len(dexes) == 0 {
			return
		}
		fmt.Fprintf(u, "&%s=%s", param, url.QueryEscape(strings.Join(dexes, ",")))
	}
}

func OnlyDirectRoutes() RequestOption {
	return func(url *strings.Builder) {
		url.WriteString("&onlyDirectRoutes=true")
	}
}

func AsLegacyTransaction() RequestOption {
	return func(url *strings.Builder) {
		url.WriteString("&asLegacyTransaction=true")
	}
}

func WithPlatformFeeBps(bps uint64) RequestOption {
	return func(url *strings.Builder) {
		fmt.Fprintf(url, "&platformFeeBps=%d", bps)
	}
}

func WithMaxAccounts(n int) RequestOption {
	return func(url *strings.Builder) {
		fmt.Fprintf(url, "&maxAccounts=%d", n)
	}
}

// WithSlippageBps sets the tolerated slippage, 50 = 0.5%.
func WithSlippageBps(bps int64) RequestOption {
	return func(url *strings.Builder) {
		fmt.Fprintf(url, "&slippageBps=%d", bps)
	}
}

type QuoteResponse struct {
	InputMint            string       `json:"inputMint"`
	InAmount             string       `json:"inAmount"`
	OutputMint           string       `json:"outputMint"`
	OutAmount            string       `json:"outAmount"`
	OtherAmountThreshold string       `json:"otherAmountThreshold"`
	SwapMode             string       `json:"swapMode"`
	SlippageBps          int64        `json:"slippageBps"`
	PlatformFee          *PlatformFee `json:"platformFee"`
	PriceImpactPct       string       `json:"priceImpactPct"`
	RoutePlan            []RoutePlan  `json:"routePlan"`
	ContextSlot          int64        `json:"contextSlot"`
	TimeTaken            float64      `json:"timeTaken"`
}

type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int64    `json:"percent"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int64  `json:"feeBps"`
}

// MinimumOut parses OtherAmountThreshold.
func (q *QuoteResponse) MinimumOut() (uint64, error) {
	v, err := strconv.ParseUint(q.OtherAmountThreshold, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "error parsing other amount threshold")
	}
	return v, nil
}

// FormatQuoteURL renders the quote request url under baseUrl.
func FormatQuoteURL(baseUrl, inputMint, outputMint string, amount uint64, opts ...RequestOption) string {
	var url strings.Builder
	fmt.Fprintf(&url, "%s%s?inputMint=%s&outputMint=%s&amount=%d", baseUrl, quoteEndpointName, inputMint, outputMint, amount)
	for _, opt := range opts {
		opt(&url)
	}
	return url.String()
}

// Quote gets the best route for swapping amount of inputMint into outputMint.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, opts ...RequestOption) (*QuoteResponse, error) {
	url := FormatQuoteURL(c.baseUrl, inputMint, outputMint, amount, opts...)
	c.Log.Debugf("quote %s", url)

	var quote QuoteResponse
	if err := c.get(ctx, url, &quote); err != nil {
		return nil, err
	}
	if len(quote.RoutePlan) == 0 {
		return nil, errors.Wrapf(ErrRouteUnavailable, "%s -> %s", inputMint, outputMint)
	}
	return &quote, nil
}

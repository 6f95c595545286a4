package jupiter

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const priceBatchSize = 10

type PriceResponse struct {
	Data      map[string]PriceData `json:"data"`
	TimeTaken float64              `json:"timeTaken"`
}

type PriceData struct {
	ID            string  `json:"id"`
	MintSymbol    string  `json:"mintSymbol"`
	VsToken       string  `json:"vsToken"`
	VsTokenSymbol string  `json:"vsTokenSymbol"`
	Price         float64 `json:"price"`
}

func FormatPriceURL(priceUrl string, mints []solana.PublicKey, vsToken solana.PublicKey, uiAmount *float64) string {
	ids := make([]string, 0, len(mints))
	for _, mint := range mints {
		ids = append(ids, mint.String())
	}

	url := fmt.Sprintf("%s%s?ids=%s&vsToken=%s", priceUrl, priceEndpointName, strings.Join(ids, ","), vsToken)
	if uiAmount != nil {
		url += fmt.Sprintf("&amount=%v", *uiAmount)
	}
	return url
}

// Price looks up the price of each mint denominated in vsToken.
func (c *Client) Price(ctx context.Context, mints []solana.PublicKey, vsToken solana.PublicKey, uiAmount *float64) ([]PriceData, error) {
	var resp PriceResponse
	if err := c.get(ctx, FormatPriceURL(c.priceUrl, mints, vsToken, uiAmount), &resp); err != nil {
		return nil, err
	}

	out := make([]PriceData, 0, len(resp.Data))
	for _, mint := range mints {
		if data, ok := resp.Data[mint.String()]; ok {
			out = append(out, data)
		}
	}
	return out, nil
}

// BatchPrice splits mints into chunks of ten. Chunks that fail are logged
// and skipped.
func (c *Client) BatchPrice(ctx context.Context, mints []solana.PublicKey, vsToken solana.PublicKey, uiAmount *float64) ([]PriceData, error) {
	if len(mints) <= priceBatchSize {
		return c.Price(ctx, mints, vsToken, uiAmount)
	}

	out := make([]PriceData, 0, len(mints))
	for start := 0; start < len(mints); start += priceBatchSize {
		end := start + priceBatchSize
		if end > len(mints) {
			end = len(mints)
		}

		prices, err := c.Price(ctx, mints[start:end], vsToken, uiAmount)
		if err != nil {
			c.Log.Warnf("price lookup for chunk %d-%d failed: %v", start, end, err)
			continue
		}
		out = append(out, prices...)
	}
	return out, nil
}

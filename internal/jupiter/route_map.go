package jupiter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type IndexedRouteMapResponse struct {
	MintKeys        []string         `json:"mintKeys"`
	IndexedRouteMap map[string][]int `json:"indexedRouteMap"`
}

// RouteMap expands the indexed form into input mint -> reachable output mints.
func (r *IndexedRouteMapResponse) RouteMap() (map[solana.PublicKey][]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(r.MintKeys))
	for _, k := range r.MintKeys {
		key, err := solana.PublicKeyFromBase58(k)
		if err != nil {
			return nil, errors.Wrapf(err, "mint key %s", k)
		}
		keys = append(keys, key)
	}

	lookup := func(i int) (solana.PublicKey, error) {
		if i < 0 || i >= len(keys) {
			return solana.PublicKey{}, errors.Errorf("mint index %d out of range", i)
		}
		return keys[i], nil
	}

	out := make(map[solana.PublicKey][]solana.PublicKey, len(r.IndexedRouteMap))
	for from, tos := range r.IndexedRouteMap {
		idx, err := strconv.Atoi(from)
		if err != nil {
			return nil, errors.Wrapf(err, "route map index %q", from)
		}
		input, err := lookup(idx)
		if err != nil {
			return nil, err
		}

		outputs := make([]solana.PublicKey, 0, len(tos))
		for _, to := range tos {
			output, err := lookup(to)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, output)
		}
		out[input] = outputs
	}
	return out, nil
}

func (c *Client) IndexedRouteMap(ctx context.Context, onlyDirectRoutes bool) (map[solana.PublicKey][]solana.PublicKey, error) {
	url := fmt.Sprintf("%s%s?onlyDirectRoutes=%v", c.baseUrl, indexedRouteMapEndpointName, onlyDirectRoutes)

	var resp IndexedRouteMapResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.RouteMap()
}

package types

import "github.com/iqbalbaharum/anyix-swap/internal/jupiter"

type CachedQuote struct {
	Quote jupiter.QuoteResponse `json:"quote"`
	Stale bool                  `json:"stale"`
}

// RouteEntry holds the quotes cached for one input/output pair. Counter is
// bumped on every refresh.
type RouteEntry struct {
	Counter uint64        `json:"counter"`
	Quotes  []CachedQuote `json:"quotes"`
}

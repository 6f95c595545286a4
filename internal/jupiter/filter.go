package jupiter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// MarketFilter accepts quotes whose route label is whitelisted and matches
// none of the blacklist patterns.
type MarketFilter struct {
	whitelist map[string]struct{}
	blacklist []*regexp.Regexp
}

func NewMarketFilter(whitelist, blacklist []string) (*MarketFilter, error) {
	f := &MarketFilter{whitelist: make(map[string]struct{}, len(whitelist))}
	for _, market := range whitelist {
		f.whitelist[strings.ToLower(market)] = struct{}{}
	}
	for _, pattern := range blacklist {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "market blacklist pattern %q", pattern)
		}
		f.blacklist = append(f.blacklist, re)
	}
	return f, nil
}

// RouteLabel describes a quote's route plan, e.g. "orca (95%) + raydium (5%)".
func RouteLabel(q *QuoteResponse) string {
	if len(q.RoutePlan) == 1 {
		return strings.ToLower(q.RoutePlan[0].SwapInfo.Label)
	}

	parts := make([]string, 0, len(q.RoutePlan))
	for _, plan := range q.RoutePlan {
		parts = append(parts, fmt.Sprintf("%s (%d%%)", strings.ToLower(plan.SwapInfo.Label), plan.Percent))
	}
	return strings.Join(parts, " + ")
}

func (f *MarketFilter) Allow(q *QuoteResponse) bool {
	label := RouteLabel(q)
	for _, re := range f.blacklist {
		if re.MatchString(label) {
			return false
		}
	}
	if len(f.whitelist) == 0 {
		return true
	}
	_, ok := f.whitelist[label]
	return ok
}

// Filter returns the allowed quotes or ErrRouteUnavailable when none remain.
func (f *MarketFilter) Filter(quotes []*QuoteResponse) ([]*QuoteResponse, error) {
	out := make([]*QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		if f.Allow(q) {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(ErrRouteUnavailable, "%d quotes filtered out", len(quotes))
	}
	return out, nil
}

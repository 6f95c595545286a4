package coder

import "github.com/pkg/errors"

// V6Route is a Jupiter v6 route instruction variant.
type V6Route uint8

const (
	Route V6Route = iota
	RouteWithTokenLedger
	SharedAccountsRoute
	SharedAccountsRouteWithTokenLedger
	SharedAccountsExactOutRoute
)

var v6Routes = map[Discriminant]V6Route{
	{229, 23, 203, 151, 122, 227, 173, 42}:  Route,
	{150, 86, 71, 116, 167, 93, 14, 104}:    RouteWithTokenLedger,
	{193, 32, 155, 51, 65, 214, 156, 129}:   SharedAccountsRoute,
	{230, 121, 143, 80, 119, 159, 106, 170}: SharedAccountsRouteWithTokenLedger,
	{176, 209, 105, 168, 154, 125, 69, 62}:  SharedAccountsExactOutRoute,
}

var v6RouteNames = map[V6Route]string{
	Route:                              "route",
	RouteWithTokenLedger:               "route_with_token_ledger",
	SharedAccountsRoute:                "shared_accounts_route",
	SharedAccountsRouteWithTokenLedger: "shared_accounts_route_with_token_ledger",
	SharedAccountsExactOutRoute:        "shared_accounts_exact_out_route",
}

func (r V6Route) String() string {
	return v6RouteNames[r]
}

func (r V6Route) Discriminant() Discriminant {
	for d, route := range v6Routes {
		if route == r {
			return d
		}
	}
	return Discriminant{}
}

// ClassifyV6 identifies a v6 aggregator route instruction. v6 routes are
// recognized but cannot be repacked as AnyIx entries.
func ClassifyV6(data []byte) (V6Route, error) {
	if len(data) < DiscriminantSize {
		return 0, errors.Wrapf(ErrTooShort, "got %d bytes", len(data))
	}

	var d Discriminant
	copy(d[:], data[:DiscriminantSize])
	if r, ok := v6Routes[d]; ok {
		return r, nil
	}
	return 0, errors.Wrapf(ErrUnrecognizedInstruction, "v6 discriminant %v", d)
}

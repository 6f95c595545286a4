package handler

import (
	"net/http"
	"strconv"

	"github.com/iqbalbaharum/anyix-swap/internal/cache"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
)

const defaultTopRoutes = 3

type RouteReader interface {
	TopNRoutes(pair cache.Pair, n int) (uint64, []types.CachedQuote, bool)
}

type routeHandler struct {
	routes RouteReader
}

func NewRouteHandler(routes RouteReader) *routeHandler {
	return &routeHandler{routes: routes}
}

func (h *routeHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	in, out, ok := parseMints(query.Get("input"), query.Get("output"))
	if !ok {
		http.Error(w, "input and output must be mint addresses", http.StatusBadRequest)
		return
	}

	n := defaultTopRoutes
	if raw := query.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "n must be a non-negative integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	counter, quotes, found := h.routes.TopNRoutes(cache.Pair{Input: in, Output: out}, n)
	if !found {
		http.Error(w, "no routes cached", http.StatusNotFound)
		return
	}

	utils.Encode(w, r, http.StatusOK, types.RouteEntry{Counter: counter, Quotes: quotes})
}

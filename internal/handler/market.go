package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/config"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
)

type PriceSource interface {
	BatchPrice(ctx context.Context, mints []solana.PublicKey, vsToken solana.PublicKey, uiAmount *float64) ([]jupiter.PriceData, error)
	IndexedRouteMap(ctx context.Context, onlyDirectRoutes bool) (map[solana.PublicKey][]solana.PublicKey, error)
}

type BalanceReader interface {
	GetBalance(ctx context.Context, publicKey solana.PublicKey) (uint64, error)
}

type BalanceResponse struct {
	Account  string  `json:"account"`
	Lamports uint64  `json:"lamports"`
	Sol      float64 `json:"sol"`
}

type marketHandler struct {
	prices   PriceSource
	balances BalanceReader
	account  solana.PublicKey
}

func NewMarketHandler(prices PriceSource, balances BalanceReader, account solana.PublicKey) *marketHandler {
	return &marketHandler{prices: prices, balances: balances, account: account}
}

// Price handles GET /price?ids=a,b&vs=c&amount=1.5. vs defaults to USDC.
func (h *marketHandler) Price(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var mints []solana.PublicKey
	for _, id := range strings.Split(query.Get("ids"), ",") {
		if id == "" {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			http.Error(w, "invalid mint "+id, http.StatusBadRequest)
			return
		}
		mints = append(mints, mint)
	}
	if len(mints) == 0 {
		http.Error(w, "ids is required", http.StatusBadRequest)
		return
	}

	vs := config.USDC_MINT
	if raw := query.Get("vs"); raw != "" {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			http.Error(w, "invalid vs mint", http.StatusBadRequest)
			return
		}
		vs = key
	}

	var amount *float64
	if raw := query.Get("amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}
		amount = &v
	}

	prices, err := h.prices.BatchPrice(r.Context(), mints, vs, amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, prices)
}

// RouteMap handles GET /route-map?direct=true, keyed by input mint.
func (h *marketHandler) RouteMap(w http.ResponseWriter, r *http.Request) {
	direct := r.URL.Query().Get("direct") == "true"

	routes, err := h.prices.IndexedRouteMap(r.Context(), direct)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make(map[string][]string, len(routes))
	for input, outputs := range routes {
		list := make([]string, 0, len(outputs))
		for _, output := range outputs {
			list = append(list, output.String())
		}
		out[input.String()] = list
	}

	utils.Encode(w, r, http.StatusOK, out)
}

// Balance reports the lamports held by the payer.
func (h *marketHandler) Balance(w http.ResponseWriter, r *http.Request) {
	lamports, err := h.balances.GetBalance(r.Context(), h.account)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, BalanceResponse{
		Account:  h.account.String(),
		Lamports: lamports,
		Sol:      float64(lamports) / float64(config.LAMPORTS_PER_SOL),
	})
}

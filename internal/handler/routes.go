package handler

import (
	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Services struct {
	Swapper  SwapService
	Routes   RouteReader
	History  HistoryStore
	Prices   PriceSource
	Balances BalanceReader
	Account  solana.PublicKey
}

func CreateRoutes(services Services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	var (
		AnyIxHandler   = NewAnyIxHandler()
		SwapHandler    = NewSwapHandler(services.Swapper)
		RouteHandler   = NewRouteHandler(services.Routes)
		HistoryHandler = NewHistoryHandler(services.History)
		MarketHandler  = NewMarketHandler(services.Prices, services.Balances, services.Account)
	)

	r.Route("/anyix", func(r chi.Router) {
		r.Post("/encode", AnyIxHandler.Encode)
		r.Post("/decode", AnyIxHandler.Decode)
	})

	r.Route("/swap", func(r chi.Router) {
		r.Post("/", SwapHandler.Swap)
		r.Post("/instruction", SwapHandler.Instruction)
	})

	r.Get("/routes", RouteHandler.Get)
	r.Get("/route-map", MarketHandler.RouteMap)
	r.Get("/price", MarketHandler.Price)
	r.Get("/balance", MarketHandler.Balance)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", HistoryHandler.Get)
		r.Delete("/", HistoryHandler.Delete)
	})

	return r
}

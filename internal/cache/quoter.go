package cache

import (
	"context"
	"math"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MintReader reads the decimals of a mint account on chain.
type MintReader interface {
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

type DecimalsStore interface {
	GetDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
	SetDecimals(ctx context.Context, mint solana.PublicKey, decimals uint8) error
}

type QuoteSource interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64, opts ...jupiter.RequestOption) (*jupiter.QuoteResponse, error)
}

// UIAmountToAmount converts a human readable amount to base units.
func UIAmountToAmount(uiAmount float64, decimals uint8) uint64 {
	return uint64(uiAmount * math.Pow10(int(decimals)))
}

// AmountToUIAmount converts base units to a human readable amount.
func AmountToUIAmount(amount uint64, decimals uint8) float64 {
	return float64(amount) / math.Pow10(int(decimals))
}

// Quoter quotes one input/output pair in ui amounts.
type Quoter struct {
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	InputDecimals  uint8
	OutputDecimals uint8
}

func (q Quoter) Amount(uiAmount float64) uint64 {
	return UIAmountToAmount(uiAmount, q.InputDecimals)
}

func (q Quoter) LookupRoutes(ctx context.Context, source QuoteSource, uiAmount float64, opts ...jupiter.RequestOption) (*jupiter.QuoteResponse, error) {
	quote, err := source.Quote(ctx, q.InputMint.String(), q.OutputMint.String(), q.Amount(uiAmount), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to lookup quote %s -> %s", q.InputMint, q.OutputMint)
	}
	return quote, nil
}

// DecimalsResolver memoizes mint decimals, falling back to the store and
// then to the chain. Values read from the chain are written to the store.
type DecimalsResolver struct {
	Reader MintReader
	Store  DecimalsStore
	Log    *logrus.Logger

	mutex sync.RWMutex
	memo  map[solana.PublicKey]uint8
}

func NewDecimalsResolver(reader MintReader, store DecimalsStore, log *logrus.Logger) *DecimalsResolver {
	if log == nil {
		log = logrus.New()
	}
	return &DecimalsResolver{
		Reader: reader,
		Store:  store,
		Log:    log,
		memo:   make(map[solana.PublicKey]uint8),
	}
}

func (r *DecimalsResolver) Decimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	r.mutex.RLock()
	decimals, ok := r.memo[mint]
	r.mutex.RUnlock()
	if ok {
		return decimals, nil
	}

	if r.Store != nil {
		decimals, err := r.Store.GetDecimals(ctx, mint)
		if err == nil {
			r.remember(mint, decimals)
			return decimals, nil
		}
		r.Log.Debugf("decimals for %s not stored: %v", mint, err)
	}

	decimals, err := r.Reader.MintDecimals(ctx, mint)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to fetch mint %s", mint)
	}

	if r.Store != nil {
		if err := r.Store.SetDecimals(ctx, mint, decimals); err != nil {
			r.Log.Warnf("failed to store decimals for %s: %v", mint, err)
		}
	}
	r.remember(mint, decimals)

	return decimals, nil
}

func (r *DecimalsResolver) remember(mint solana.PublicKey, decimals uint8) {
	r.mutex.Lock()
	r.memo[mint] = decimals
	r.mutex.Unlock()
}

func (r *DecimalsResolver) NewQuoter(ctx context.Context, inputMint, outputMint solana.PublicKey) (Quoter, error) {
	inputDecimals, err := r.Decimals(ctx, inputMint)
	if err != nil {
		return Quoter{}, errors.Wrap(err, "input mint")
	}
	outputDecimals, err := r.Decimals(ctx, outputMint)
	if err != nil {
		return Quoter{}, errors.Wrap(err, "output mint")
	}

	return Quoter{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InputDecimals:  inputDecimals,
		OutputDecimals: outputDecimals,
	}, nil
}

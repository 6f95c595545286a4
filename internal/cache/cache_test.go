package cache

import (
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/iqbalbaharum/anyix-swap/internal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMints struct {
	mutex    sync.Mutex
	decimals map[solana.PublicKey]uint8
	calls    int
}

func (f *fakeMints) MintDecimals(_ context.Context, mint solana.PublicKey) (uint8, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	d, ok := f.decimals[mint]
	if !ok {
		return 0, errors.New("account not found")
	}
	return d, nil
}

type fakeQuotes struct {
	amounts []uint64
	err     error
}

func (f *fakeQuotes) Quote(_ context.Context, in, out string, amount uint64, _ ...jupiter.RequestOption) (*jupiter.QuoteResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.amounts = append(f.amounts, amount)
	return &jupiter.QuoteResponse{
		InputMint:  in,
		OutputMint: out,
		InAmount:   strconv.FormatUint(amount, 10),
		OutAmount:  strconv.Itoa(len(f.amounts)),
	}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type env struct {
	pair   Pair
	mints  *fakeMints
	quotes *fakeQuotes
	cache  *RouteCache
}

func newEnv(t *testing.T) *env {
	pair := Pair{Input: solana.NewWallet().PublicKey(), Output: solana.NewWallet().PublicKey()}
	mints := &fakeMints{decimals: map[solana.PublicKey]uint8{pair.Input: 9, pair.Output: 6}}
	quotes := &fakeQuotes{}

	resolver := NewDecimalsResolver(mints, nil, quietLogger())
	return &env{
		pair:   pair,
		mints:  mints,
		quotes: quotes,
		cache:  NewRouteCache(4, quotes, resolver, quietLogger()),
	}
}

func TestUIAmountToAmount(t *testing.T) {
	assert.Equal(t, uint64(1500000), UIAmountToAmount(1.5, 6))
	assert.Equal(t, uint64(2000000000), UIAmountToAmount(2, 9))
	assert.Equal(t, uint64(25), UIAmountToAmount(0.25, 2))
	assert.Equal(t, uint64(7), UIAmountToAmount(7, 0))
}

func TestDecimalsResolverUsesStore(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	mints := &fakeMints{decimals: map[solana.PublicKey]uint8{mint: 5}}
	store := storage.NewDecimalsStorage(newRedis(t))
	ctx := context.Background()

	first := NewDecimalsResolver(mints, store, quietLogger())
	d, err := first.Decimals(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), d)
	_, err = first.Decimals(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, 1, mints.calls)

	// a second resolver finds the value in redis
	second := NewDecimalsResolver(mints, store, quietLogger())
	d, err = second.Decimals(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), d)
	assert.Equal(t, 1, mints.calls)
}

func TestDecimalsResolverMissingMint(t *testing.T) {
	r := NewDecimalsResolver(&fakeMints{}, nil, quietLogger())
	_, err := r.NewQuoter(context.Background(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input mint")
}

func TestPopulateCounter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.cache.Populate(ctx, []Pair{e.pair}, 1.5))
	counter, quotes, ok := e.cache.TopNRoutes(e.pair, 3)
	require.True(t, ok)
	assert.Equal(t, uint64(0), counter)
	require.Len(t, quotes, 1)
	assert.False(t, quotes[0].Stale)
	assert.Equal(t, "1500000000", quotes[0].Quote.InAmount)

	e.cache.MarkRoutesStale([]Pair{e.pair})
	_, quotes, _ = e.cache.TopNRoutes(e.pair, 3)
	assert.True(t, quotes[0].Stale)

	require.NoError(t, e.cache.Populate(ctx, []Pair{e.pair}, 1.5))
	counter, quotes, _ = e.cache.TopNRoutes(e.pair, 3)
	assert.Equal(t, uint64(1), counter)
	require.Len(t, quotes, 1)
	assert.False(t, quotes[0].Stale)
	assert.Equal(t, "2", quotes[0].Quote.OutAmount)

	// decimals are resolved once per pair
	assert.Equal(t, 2, e.mints.calls)
}

func TestTopNRoutesMissing(t *testing.T) {
	e := newEnv(t)
	_, quotes, ok := e.cache.TopNRoutes(e.pair, 1)
	assert.False(t, ok)
	assert.Nil(t, quotes)
}

func TestTopNRoutesZero(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.cache.Populate(context.Background(), []Pair{e.pair}, 1))

	_, quotes, ok := e.cache.TopNRoutes(e.pair, 0)
	assert.True(t, ok)
	assert.Empty(t, quotes)
}

func TestTopNRoutesReturnsCopy(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.cache.Populate(context.Background(), []Pair{e.pair}, 1))

	_, quotes, _ := e.cache.TopNRoutes(e.pair, 1)
	quotes[0].Stale = true

	_, again, _ := e.cache.TopNRoutes(e.pair, 1)
	assert.False(t, again[0].Stale)
}

func TestPopulateQuoteError(t *testing.T) {
	e := newEnv(t)
	e.quotes.err = jupiter.ErrRouteUnavailable

	err := e.cache.Populate(context.Background(), []Pair{e.pair}, 1)
	assert.True(t, errors.Is(err, jupiter.ErrRouteUnavailable))

	_, _, ok := e.cache.TopNRoutes(e.pair, 1)
	assert.False(t, ok)
}

func TestPersistAndRestore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	store := storage.NewRouteStorage(newRedis(t))
	e.cache.Store = store

	require.NoError(t, e.cache.Populate(ctx, []Pair{e.pair}, 1))
	require.NoError(t, e.cache.Populate(ctx, []Pair{e.pair}, 1))

	restoredCache := NewRouteCache(4, e.quotes, e.cache.Decimals, quietLogger())
	restoredCache.Store = store

	n, err := restoredCache.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counter, quotes, ok := restoredCache.TopNRoutes(e.pair, 1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), counter)
	assert.Equal(t, "2", quotes[0].Quote.OutAmount)
}

func TestRunStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.cache.Run(ctx, time.Hour, []Target{{Pair: e.pair, UIAmount: 1}})
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, _, ok := e.cache.TopNRoutes(e.pair, 1)
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

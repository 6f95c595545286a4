package bot

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/anyix"
	"github.com/iqbalbaharum/anyix-swap/internal/coder"
	"github.com/iqbalbaharum/anyix-swap/internal/config"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func toAPI(ix *solana.GenericInstruction) *jupiter.Instruction {
	out := &jupiter.Instruction{
		ProgramId: ix.ProgID.String(),
		Data:      base64.StdEncoding.EncodeToString(ix.DataBytes),
	}
	for _, account := range ix.AccountValues {
		out.Accounts = append(out.Accounts, jupiter.InstructionAccount{
			Pubkey:     account.PublicKey.String(),
			IsSigner:   account.IsSigner,
			IsWritable: account.IsWritable,
		})
	}
	return out
}

type fakeAggregator struct {
	quote     *jupiter.QuoteResponse
	quoteErrs []error
	response  *jupiter.SwapInstructionsResponse
	quotes    int
	requests  []jupiter.SwapRequest
}

func (f *fakeAggregator) Quote(_ context.Context, in, out string, amount uint64, _ ...jupiter.RequestOption) (*jupiter.QuoteResponse, error) {
	f.quotes++
	if len(f.quoteErrs) > 0 {
		err := f.quoteErrs[0]
		f.quoteErrs = f.quoteErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	q := *f.quote
	q.InputMint, q.OutputMint = in, out
	return &q, nil
}

func (f *fakeAggregator) SwapInstructions(_ context.Context, req jupiter.SwapRequest) (*jupiter.SwapInstructionsResponse, error) {
	f.requests = append(f.requests, req)
	return f.response, nil
}

type fakeChain struct {
	sent      []*solana.Transaction
	sendErr   error
	preflight []bool
}

func (f *fakeChain) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{9}, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction, skipPreflight bool) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.preflight = append(f.preflight, skipPreflight)
	return tx.Signatures[0], nil
}

type fakeConfirmer struct {
	err   error
	calls int
	// block waits for ctx instead of answering
	block bool
}

func (f *fakeConfirmer) SignatureSubscribe(ctx context.Context, _ solana.Signature) error {
	f.calls++
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

type fakeHistory struct {
	records []types.SwapRecord
	updates map[int64]string
}

func (f *fakeHistory) Insert(_ context.Context, swap *types.SwapRecord) (int64, error) {
	f.records = append(f.records, *swap)
	return int64(len(f.records)), nil
}

func (f *fakeHistory) UpdateStatus(_ context.Context, id int64, status string, _ string) error {
	if f.updates == nil {
		f.updates = make(map[int64]string)
	}
	f.updates[id] = status
	return nil
}

type fakeDecimals map[solana.PublicKey]uint8

func (f fakeDecimals) Decimals(_ context.Context, mint solana.PublicKey) (uint8, error) {
	d, ok := f[mint]
	if !ok {
		return 0, errors.New("unknown mint")
	}
	return d, nil
}

type env struct {
	payer      solana.PrivateKey
	inputMint  solana.PublicKey
	outputMint solana.PublicKey
	aggregator *fakeAggregator
	chain      *fakeChain
	confirmer  *fakeConfirmer
	history    *fakeHistory
	swapper    *Swapper
}

func raydiumSwapInstruction(t *testing.T, user solana.PublicKey) *solana.GenericInstruction {
	data, err := coder.EncodeVenue(coder.RaydiumSwap, coder.VenueArgs{
		Inputs: coder.SwapInputs{InputAmount: pointer.ToUint64(1_000_000_000), MinOutput: 149_000_000},
	})
	require.NoError(t, err)

	return solana.NewInstruction(config.JUPITER_V3, []*solana.AccountMeta{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(newKey()),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(user).SIGNER(),
	}, data)
}

func newEnv(t *testing.T) *env {
	payer := solana.NewWallet().PrivateKey
	vaultPda := newKey()

	e := &env{
		payer:      payer,
		inputMint:  newKey(),
		outputMint: newKey(),
		aggregator: &fakeAggregator{
			quote: &jupiter.QuoteResponse{
				InAmount:  "1000000000",
				OutAmount: "150000000",
				RoutePlan: []jupiter.RoutePlan{{SwapInfo: jupiter.SwapInfo{Label: "Raydium"}, Percent: 100}},
			},
			response: &jupiter.SwapInstructionsResponse{
				SwapInstruction: toAPI(raydiumSwapInstruction(t, vaultPda)),
			},
		},
		chain:     &fakeChain{},
		confirmer: &fakeConfirmer{},
		history:   &fakeHistory{},
	}

	e.swapper = NewSwapper(SwapperConfig{
		Payer:      payer,
		Program:    newKey(),
		Management: newKey(),
		Vault:      newKey(),
		VaultPda:   vaultPda,
		Slippage:   jupiter.DefaultSlippage,
		MaxTries:   3,
	}, e.aggregator, e.chain, anyix.NewPipeline(quietLogger(), nil), quietLogger())
	e.swapper.Confirmer = e.confirmer
	e.swapper.History = e.history
	e.swapper.Decimals = fakeDecimals{e.inputMint: 9}

	return e
}

func TestNewAnyIxSwapIx(t *testing.T) {
	e := newEnv(t)

	swap, err := e.swapper.NewAnyIxSwapIx(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint)
	require.NoError(t, err)
	require.NotNil(t, swap.Swap)
	assert.Empty(t, swap.Setup)

	require.Len(t, e.aggregator.requests, 1)
	assert.Equal(t, e.swapper.Config.VaultPda.String(), e.aggregator.requests[0].UserPublicKey)
	assert.True(t, e.aggregator.requests[0].AsLegacyTransaction)

	assert.Equal(t, e.swapper.Config.Program, swap.Swap.ProgramID())
	accounts := swap.Swap.Accounts()
	require.Len(t, accounts, 4+6)
	assert.Equal(t, e.payer.PublicKey(), accounts[0].PublicKey)
	assert.Equal(t, []coder.Protocol{coder.RaydiumSwap}, swap.Result.Protocols)

	data, err := swap.Swap.Data()
	require.NoError(t, err)
	inner, err := instructions.DecodeJupiterSwapData(data)
	require.NoError(t, err)
	batch, err := coder.Unpack(inner)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), batch.NumInstructions)
}

func TestNewAnyIxSwapIxFailOnSetup(t *testing.T) {
	e := newEnv(t)
	e.aggregator.response.SetupInstructions = []*jupiter.Instruction{
		toAPI(solana.NewInstruction(config.ASSOCIATED_TOKEN_PROGRAM, []*solana.AccountMeta{solana.Meta(newKey())}, nil)),
	}

	swap, err := e.swapper.NewAnyIxSwapIx(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint)
	require.NoError(t, err)
	assert.Len(t, swap.Setup, 1)

	e.swapper.Config.FailOnSetup = true
	_, err = e.swapper.NewAnyIxSwapIx(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint)
	assert.True(t, errors.Is(err, ErrSetupRequired))
}

func TestNewAnyIxSwapIxUntrustedProgram(t *testing.T) {
	e := newEnv(t)
	rogue := raydiumSwapInstruction(t, e.swapper.Config.VaultPda)
	rogue.ProgID = newKey()
	e.aggregator.response.SwapInstruction = toAPI(rogue)

	_, err := e.swapper.NewAnyIxSwapIx(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint)
	assert.True(t, errors.Is(err, anyix.ErrUntrustedProgram))
}

func TestNewAnyIxSwapConfirmed(t *testing.T) {
	e := newEnv(t)

	sig, err := e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	require.NoError(t, err)

	require.Len(t, e.chain.sent, 1)
	tx := e.chain.sent[0]
	assert.Equal(t, tx.Signatures[0], sig)
	assert.Equal(t, solana.Hash{9}, tx.Message.RecentBlockhash)
	assert.False(t, e.chain.preflight[0])
	assert.Equal(t, 1, e.confirmer.calls)

	require.Len(t, e.history.records, 1)
	assert.Equal(t, types.SWAP_STATUS_SENT, e.history.records[0].Status)
	assert.Equal(t, uint64(1_000_000_000), e.history.records[0].Amount)
	assert.Equal(t, 1.0, e.history.records[0].UIAmount)
	assert.Equal(t, "raydium", e.history.records[0].Route)
	assert.Equal(t, types.SWAP_STATUS_CONFIRMED, e.history.updates[1])
}

func TestNewAnyIxSwapConfirmTimeout(t *testing.T) {
	e := newEnv(t)
	e.confirmer.block = true
	e.swapper.Config.ConfirmTimeout = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := e.swapper.NewAnyIxSwapWithQuote(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint, 1)
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation wait was not bounded")
	}

	require.Len(t, e.history.records, 1)
	assert.Equal(t, types.SWAP_STATUS_SENT, e.history.records[0].Status)
	assert.Equal(t, types.SWAP_STATUS_FAILED, e.history.updates[1])
}

func TestNewAnyIxSwapUnknownDecimalsLeavesUIAmount(t *testing.T) {
	e := newEnv(t)
	e.swapper.Decimals = fakeDecimals{}

	_, err := e.swapper.NewAnyIxSwapWithQuote(context.Background(), e.aggregator.quote, e.inputMint, e.outputMint, 1)
	require.NoError(t, err)
	require.Len(t, e.history.records, 1)
	assert.Equal(t, uint64(1_000_000_000), e.history.records[0].Amount)
	assert.Zero(t, e.history.records[0].UIAmount)
}

func TestNewAnyIxSwapSkipPreflight(t *testing.T) {
	e := newEnv(t)
	e.swapper.Config.SkipPreflight = true

	_, err := e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	require.NoError(t, err)
	assert.True(t, e.chain.preflight[0])
	assert.Equal(t, 0, e.confirmer.calls)
	assert.Empty(t, e.history.updates)
}

func TestNewAnyIxSwapRetries(t *testing.T) {
	e := newEnv(t)
	e.aggregator.quoteErrs = []error{jupiter.ErrRouteUnavailable, nil}

	_, err := e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, e.aggregator.quotes)
	require.Len(t, e.history.records, 1)
	assert.Equal(t, 2, e.history.records[0].Attempt)
}

func TestNewAnyIxSwapMaxTries(t *testing.T) {
	e := newEnv(t)
	e.chain.sendErr = errors.New("blockhash not found")

	_, err := e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blockhash not found")
	assert.Equal(t, 3, e.aggregator.quotes)

	require.Len(t, e.history.records, 3)
	for i, record := range e.history.records {
		assert.Equal(t, i+1, record.Attempt)
		assert.Equal(t, types.SWAP_STATUS_FAILED, record.Status)
		assert.Contains(t, record.Error, "blockhash not found")
	}
}

func TestNewAnyIxSwapMarketFilter(t *testing.T) {
	e := newEnv(t)
	filter, err := jupiter.NewMarketFilter([]string{"orca"}, nil)
	require.NoError(t, err)
	e.swapper.Markets = filter
	e.swapper.Config.MaxTries = 2

	_, err = e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	assert.True(t, errors.Is(err, jupiter.ErrRouteUnavailable))
	assert.Equal(t, 2, e.aggregator.quotes)
	assert.Empty(t, e.chain.sent)
}

func TestNewAnyIxSwapConfirmFailure(t *testing.T) {
	e := newEnv(t)
	e.confirmer.err = errors.New("transaction failed")
	e.swapper.Config.MaxTries = 1

	_, err := e.swapper.NewAnyIxSwap(context.Background(), e.inputMint, e.outputMint, 1)
	require.Error(t, err)
	assert.Equal(t, types.SWAP_STATUS_FAILED, e.history.updates[1])
}

func TestNewAnyIxSwapUnknownMint(t *testing.T) {
	e := newEnv(t)

	_, err := e.swapper.NewAnyIxSwap(context.Background(), newKey(), e.outputMint, 1)
	require.Error(t, err)
	assert.Equal(t, 0, e.aggregator.quotes)
}

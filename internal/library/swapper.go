package bot

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/anyix"
	"github.com/iqbalbaharum/anyix-swap/internal/cache"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultConfirmTimeout bounds the wait for a confirmation when
// SwapperConfig.ConfirmTimeout is unset.
const DefaultConfirmTimeout = time.Minute

var (
	ErrSetupRequired = errors.New("swap requires setup instructions")
	ErrNoSwap        = errors.New("failed to create jupiter any ix swap")
)

type Aggregator interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64, opts ...jupiter.RequestOption) (*jupiter.QuoteResponse, error)
	SwapInstructions(ctx context.Context, req jupiter.SwapRequest) (*jupiter.SwapInstructionsResponse, error)
}

type ChainClient interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, transaction *solana.Transaction, skipPreflight bool) (solana.Signature, error)
}

type Confirmer interface {
	SignatureSubscribe(ctx context.Context, signature solana.Signature) error
}

// Broadcaster sends through external relays instead of the rpc node.
type Broadcaster interface {
	Broadcast(ctx context.Context, transaction *solana.Transaction) (string, error)
}

type History interface {
	Insert(ctx context.Context, swap *types.SwapRecord) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status string, errMsg string) error
}

type DecimalsSource interface {
	Decimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

type SwapperConfig struct {
	Payer         solana.PrivateKey
	Program       solana.PublicKey
	Management    solana.PublicKey
	Vault         solana.PublicKey
	VaultPda      solana.PublicKey
	Replacements  map[solana.PublicKey]solana.PublicKey
	Slippage      jupiter.Slippage
	Compute       instructions.ComputeUnit
	MaxTries      uint64
	RetryInterval time.Duration
	// ConfirmTimeout caps SignatureSubscribe, DefaultConfirmTimeout when zero.
	ConfirmTimeout time.Duration
	SkipPreflight  bool
	FailOnSetup    bool
}

// AnyIxSwap holds the instructions decoded from a swap-instructions response
// with the swap itself re-encoded as a single jupiter_swap instruction.
type AnyIxSwap struct {
	Setup   []solana.Instruction
	Swap    *instructions.JupiterSwapInstruction
	Cleanup solana.Instruction
	Result  *anyix.Result
}

type Swapper struct {
	Config     SwapperConfig
	Aggregator Aggregator
	Chain      ChainClient
	Confirmer  Confirmer
	Relays     Broadcaster
	History    History
	Decimals   DecimalsSource
	Markets    *jupiter.MarketFilter
	Pipeline   *anyix.Pipeline
	Log        *logrus.Logger
}

func NewSwapper(cfg SwapperConfig, aggregator Aggregator, chain ChainClient, pipeline *anyix.Pipeline, log *logrus.Logger) *Swapper {
	if log == nil {
		log = logrus.New()
	}
	if pipeline == nil {
		pipeline = anyix.NewPipeline(log, nil)
	}
	return &Swapper{
		Config:     cfg,
		Aggregator: aggregator,
		Chain:      chain,
		Pipeline:   pipeline,
		Log:        log,
	}
}

// NewAnyIxSwapIx requests the swap instructions for quote with the vault pda
// as user and re-encodes the swap through the AnyIx pipeline.
func (s *Swapper) NewAnyIxSwapIx(ctx context.Context, quote *jupiter.QuoteResponse, inputMint, outputMint solana.PublicKey) (*AnyIxSwap, error) {
	resp, err := s.Aggregator.SwapInstructions(ctx, jupiter.NewSwapRequest(*quote, s.Config.VaultPda))
	if err != nil {
		return nil, err
	}

	swap := &AnyIxSwap{Setup: resp.Setup()}
	if len(resp.SetupInstructions) > 0 {
		if s.Config.FailOnSetup {
			return nil, errors.Wrapf(ErrSetupRequired, "%d setup instructions", len(resp.SetupInstructions))
		}
		s.Log.Warnf("swap requires %d setup instructions", len(resp.SetupInstructions))
	}
	if resp.CleanupInstruction != nil {
		if cleanup, err := resp.CleanupInstruction.ToInstruction(); err == nil {
			swap.Cleanup = cleanup
		}
	}

	// the blockhash is irrelevant, the transaction is only decompiled
	tx, err := resp.NewTransaction(s.Config.Payer.PublicKey(), solana.Hash{}, nil, nil)
	if err != nil {
		return nil, err
	}

	result, err := s.Pipeline.ProcessTransaction(ctx, tx, anyix.Params{
		ProgramID:    s.Config.Program,
		Authority:    s.Config.Payer.PublicKey(),
		Management:   s.Config.Management,
		Vault:        s.Config.Vault,
		InputMint:    inputMint,
		OutputMint:   outputMint,
		Replacements: s.Config.Replacements,
	})
	if err != nil {
		s.Log.Debugf("tx process failed: %v", err)
		return nil, errors.Wrap(err, "tx process failed")
	}

	swap.Swap = result.Instruction
	swap.Result = result
	return swap, nil
}

// NewAnyIxSwapWithQuote builds, signs and sends the AnyIx swap for quote.
// Unless preflight is skipped the signature is confirmed before returning.
func (s *Swapper) NewAnyIxSwapWithQuote(ctx context.Context, quote *jupiter.QuoteResponse, inputMint, outputMint solana.PublicKey, attempt int) (solana.Signature, error) {
	record := &types.SwapRecord{
		InputMint:  inputMint.String(),
		OutputMint: outputMint.String(),
		Route:      jupiter.RouteLabel(quote),
		Attempt:    attempt,
		Status:     types.SWAP_STATUS_FAILED,
	}
	if amount, err := parseAmount(quote.InAmount); err == nil {
		record.Amount = amount
		if s.Decimals != nil {
			if decimals, err := s.Decimals.Decimals(ctx, inputMint); err == nil {
				record.UIAmount = cache.AmountToUIAmount(amount, decimals)
			} else {
				s.Log.Debugf("no decimals for %s: %v", inputMint, err)
			}
		}
	}

	swap, err := s.NewAnyIxSwapIx(ctx, quote, inputMint, outputMint)
	if err != nil {
		s.record(ctx, record, err)
		return solana.Signature{}, err
	}
	if swap.Swap == nil {
		s.record(ctx, record, ErrNoSwap)
		return solana.Signature{}, ErrNoSwap
	}

	blockhash, err := s.Chain.GetLatestBlockhash(ctx)
	if err != nil {
		s.record(ctx, record, err)
		return solana.Signature{}, err
	}

	_, tx, err := instructions.MakeSwapTransaction(nil, swap.Swap, s.Config.Compute, instructions.TxOption{
		Blockhash: blockhash,
		Payer:     s.Config.Payer,
	})
	if err != nil {
		s.record(ctx, record, err)
		return solana.Signature{}, err
	}

	s.Log.Debug("sending jupiter swap ix")
	signature, err := s.send(ctx, tx)
	if err != nil {
		err = errors.Wrap(err, "failed to send jupiter swap ix")
		s.record(ctx, record, err)
		return solana.Signature{}, err
	}

	record.Signature = signature.String()
	record.Status = types.SWAP_STATUS_SENT
	id := s.record(ctx, record, nil)

	if s.Config.SkipPreflight || s.Confirmer == nil {
		return signature, nil
	}

	if err := s.confirm(ctx, signature); err != nil {
		s.updateStatus(ctx, id, types.SWAP_STATUS_FAILED, err)
		return signature, errors.Wrapf(err, "confirm %s", signature)
	}
	s.updateStatus(ctx, id, types.SWAP_STATUS_CONFIRMED, nil)

	return signature, nil
}

func (s *Swapper) confirm(ctx context.Context, signature solana.Signature) error {
	timeout := s.Config.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.Confirmer.SignatureSubscribe(ctx, signature)
}

// NewAnyIxSwap quotes uiAmount of inputMint and swaps it, retrying with a
// fresh quote up to MaxTries times. The last error is returned when every
// attempt fails.
func (s *Swapper) NewAnyIxSwap(ctx context.Context, inputMint, outputMint solana.PublicKey, uiAmount float64) (solana.Signature, error) {
	decimals, err := s.Decimals.Decimals(ctx, inputMint)
	if err != nil {
		return solana.Signature{}, err
	}
	amount := cache.UIAmountToAmount(uiAmount, decimals)

	tries := s.Config.MaxTries
	if tries == 0 {
		tries = 1
	}

	var (
		attempt   int
		signature solana.Signature
	)

	operation := func() error {
		attempt++

		quote, err := s.Aggregator.Quote(ctx, inputMint.String(), outputMint.String(), amount,
			jupiter.AsLegacyTransaction(),
			jupiter.WithSlippage(s.Config.Slippage),
		)
		if err != nil {
			s.Log.WithField("attempt", attempt).Warnf("quote failed: %v", err)
			return err
		}

		if s.Markets != nil {
			if _, err := s.Markets.Filter([]*jupiter.QuoteResponse{quote}); err != nil {
				s.Log.WithField("attempt", attempt).Warnf("route %q rejected", jupiter.RouteLabel(quote))
				return err
			}
		}

		sig, err := s.NewAnyIxSwapWithQuote(ctx, quote, inputMint, outputMint, attempt)
		if err != nil {
			s.Log.WithField("attempt", attempt).Warnf("anyix swap failed: %v", err)
			return err
		}

		signature = sig
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.Config.RetryInterval), tries-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return solana.Signature{}, errors.Wrapf(err, "anyix swap failed after %d attempts", attempt)
	}

	return signature, nil
}

func (s *Swapper) send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if s.Relays == nil {
		return s.Chain.SendTransaction(ctx, tx, s.Config.SkipPreflight)
	}

	sig, err := s.Relays.Broadcast(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return solana.SignatureFromBase58(sig)
}

package anyix

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/coder"
	"github.com/iqbalbaharum/anyix-swap/internal/config"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Index of token_vault_a in a whirlpool swap account list.
const whirlpoolTokenVaultAIndex = 5

// VaultMintReader resolves the mint of an SPL token account.
type VaultMintReader interface {
	VaultMint(ctx context.Context, vault solana.PublicKey) (solana.PublicKey, error)
}

// Pipeline turns an aggregator swap transaction into a single jupiter_swap
// instruction for the routing program.
type Pipeline struct {
	Log        *logrus.Logger
	Mints      VaultMintReader
	Coder      *coder.JupiterInstructionCoder
	Replacer   Replacer
	Aggregator solana.PublicKey
}

// Params are the per-swap inputs of the pipeline.
type Params struct {
	ProgramID    solana.PublicKey
	Authority    solana.PublicKey
	Management   solana.PublicKey
	Vault        solana.PublicKey
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	Replacements map[solana.PublicKey]solana.PublicKey
}

type Result struct {
	Instruction *instructions.JupiterSwapInstruction
	Batch       *coder.AnyIx
	Protocols   []coder.Protocol
}

func NewPipeline(log *logrus.Logger, mints VaultMintReader) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{
		Log:        log,
		Mints:      mints,
		Coder:      coder.NewJupiterInstructionCoder(),
		Replacer:   ReplaceByAccountPubkey,
		Aggregator: config.JUPITER_V3,
	}
}

func (p *Pipeline) trusted(program solana.PublicKey) bool {
	return program.Equals(config.ASSOCIATED_TOKEN_PROGRAM) || program.Equals(p.Aggregator)
}

// ProcessTransaction decompiles tx and runs ProcessInstructions over it.
func (p *Pipeline) ProcessTransaction(ctx context.Context, tx *solana.Transaction, params Params) (*Result, error) {
	ixs, err := Decompile(&tx.Message)
	if err != nil {
		return nil, err
	}
	return p.ProcessInstructions(ctx, ixs, params)
}

// ProcessInstructions validates the program ids, reclassifies every
// aggregator instruction and packs them into one AnyIx batch. Associated
// token account instructions are allowed but not carried over.
func (p *Pipeline) ProcessInstructions(ctx context.Context, ixs []*solana.GenericInstruction, params Params) (*Result, error) {
	for _, ix := range ixs {
		if !p.trusted(ix.ProgID) {
			return nil, errors.Wrapf(ErrUntrustedProgram, "program id %s", ix.ProgID)
		}
	}

	var (
		expected  int
		firstErr  error
		entries   []coder.Entry
		protocols []coder.Protocol
		accounts  []*solana.AccountMeta
	)

	for i, ix := range ixs {
		if !ix.ProgID.Equals(p.Aggregator) {
			continue
		}
		expected++

		for _, account := range ix.AccountValues {
			account.IsSigner = false
		}

		protocol, entry, err := p.reclassify(ctx, ix, params)
		if err != nil {
			p.Log.WithField("index", i).Errorf("failed to process jupiter ix: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		entries = append(entries, entry)
		protocols = append(protocols, protocol)
		accounts = append(accounts, ix.AccountValues...)
	}

	if len(entries) != expected {
		return nil, fmt.Errorf("%w: got %d, want %d: %w", ErrInstructionCountMismatch, len(entries), expected, firstErr)
	}

	batch, err := coder.NewAnyIx(entries)
	if err != nil {
		return nil, err
	}
	data, err := batch.Pack()
	if err != nil {
		return nil, err
	}

	ins := instructions.MakeJupiterSwapInstruction(&instructions.JupiterSwapParams{
		ProgramID:  params.ProgramID,
		Authority:  params.Authority,
		Management: params.Management,
		Vault:      params.Vault,
		Aggregator: p.Aggregator,
		InputData:  data,
		Accounts:   accounts,
	})

	replacer := p.Replacer
	if replacer == nil {
		replacer = ReplaceByAccountPubkey
	}
	ReplaceAccounts(p.Log, ins.AccountMetaSlice, replacer, params.Replacements)

	return &Result{
		Instruction: ins,
		Batch:       batch,
		Protocols:   protocols,
	}, nil
}

func (p *Pipeline) reclassify(ctx context.Context, ix *solana.GenericInstruction, params Params) (coder.Protocol, coder.Entry, error) {
	protocol, inputs, err := p.Coder.Decode(ix.DataBytes)
	if err != nil {
		return 0, coder.Entry{}, err
	}

	if protocol == coder.Whirlpool {
		side, err := p.whirlpoolSide(ctx, ix.AccountValues, params, inputs.Side)
		if err != nil {
			return 0, coder.Entry{}, err
		}
		inputs.Side = side
	}

	entry, err := p.Coder.Entry(protocol, inputs, len(ix.AccountValues))
	if err != nil {
		return 0, coder.Entry{}, err
	}
	return protocol, entry, nil
}

// whirlpoolSide derives the swap direction from the mint of token_vault_a.
func (p *Pipeline) whirlpoolSide(ctx context.Context, accounts []*solana.AccountMeta, params Params, decoded coder.Side) (coder.Side, error) {
	if len(accounts) <= whirlpoolTokenVaultAIndex {
		return 0, errors.Wrapf(ErrAccountResolution, "whirlpool swap has %d accounts", len(accounts))
	}
	if p.Mints == nil {
		return 0, errors.Wrap(ErrAccountResolution, "no vault mint reader")
	}

	vault := accounts[whirlpoolTokenVaultAIndex].PublicKey
	mint, err := p.Mints.VaultMint(ctx, vault)
	if err != nil {
		return 0, errors.Wrapf(ErrAccountResolution, "token vault %s: %v", vault, err)
	}

	switch {
	case mint.Equals(params.InputMint):
		p.Log.Debug("whirlpool swap, setting side to 0 (ask)")
		return coder.SideAsk, nil
	case mint.Equals(params.OutputMint):
		p.Log.Debug("whirlpool swap, setting side to 1 (bid)")
		return coder.SideBid, nil
	default:
		p.Log.Warnf("whirlpool vault mint %s matches neither input nor output, keeping side %d", mint, decoded)
		return decoded, nil
	}
}

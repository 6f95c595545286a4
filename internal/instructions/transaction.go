package instructions

import (
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/pkg/errors"
)

type ComputeUnit struct {
	MicroLamports uint64
	Units         uint32
}

type TxOption struct {
	Blockhash solana.Hash
	Payer     solana.PrivateKey
}

// ComputeInstructions returns the compute budget prelude for the given
// limits. Zero values are omitted.
func ComputeInstructions(compute ComputeUnit) []solana.Instruction {
	ins := []solana.Instruction{}

	if compute.Units > 0 {
		ins = append(ins, computebudget.NewSetComputeUnitLimitInstruction(compute.Units).Build())
	}

	if compute.MicroLamports > 0 {
		ins = append(ins, computebudget.NewSetComputeUnitPriceInstruction(compute.MicroLamports).Build())
	}

	return ins
}

// MakeSwapTransaction assembles compute budget, setup and swap instructions
// into a transaction signed by the payer.
func MakeSwapTransaction(
	setup []solana.Instruction,
	swap solana.Instruction,
	compute ComputeUnit,
	options TxOption) ([]solana.Signature, *solana.Transaction, error) {

	if options.Payer == nil {
		return nil, nil, errors.New("payer is required")
	}
	payer := options.Payer.PublicKey()

	ins := []solana.Instruction{}
	ins = append(ins, ComputeInstructions(compute)...)
	ins = append(ins, setup...)
	ins = append(ins, swap)

	tx, err := solana.NewTransaction(
		ins,
		options.Blockhash,
		solana.TransactionPayer(payer),
	)

	if err != nil {
		return nil, nil, errors.Wrap(err, "new transaction")
	}

	signature, err := tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			if payer.Equals(key) {
				return &options.Payer
			}
			return nil
		},
	)

	if err != nil {
		return nil, nil, errors.Wrap(err, "sign transaction")
	}

	return signature, tx, nil
}

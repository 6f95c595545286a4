package coder

import "github.com/pkg/errors"

// JupiterInstructionCoder converts aggregator venue instructions into AnyIx entries.
type JupiterInstructionCoder struct{}

func NewJupiterInstructionCoder() *JupiterInstructionCoder {
	return &JupiterInstructionCoder{}
}

// Decode decodes venue instruction data into its protocol and inputs.
func (c *JupiterInstructionCoder) Decode(data []byte) (Protocol, SwapInputs, error) {
	return DecodeInstruction(data)
}

// Entry builds the AnyIx entry for an already decoded venue instruction.
func (c *JupiterInstructionCoder) Entry(p Protocol, inputs SwapInputs, accountCount int) (Entry, error) {
	if accountCount > MaxInstructions {
		return Entry{}, errors.Wrapf(ErrTooManyAccounts, "%s has %d accounts", p, accountCount)
	}
	return Entry{
		Data:         EntryData(p, inputs),
		AccountCount: uint8(accountCount),
	}, nil
}

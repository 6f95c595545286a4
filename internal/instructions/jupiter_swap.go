package instructions

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// Anchor selector of the routing program's jupiter_swap entrypoint.
var JupiterSwapDiscriminant = bin.TypeIDFromBytes([]byte{116, 207, 0, 196, 252, 120, 243, 18})

var ErrNotJupiterSwap = errors.New("not a jupiter_swap instruction")

// JupiterSwapInstruction invokes the routing program with a packed AnyIx batch.
type JupiterSwapInstruction struct {
	bin.BaseVariant
	InputData               []byte
	ProgramId               solana.PublicKey `bin:"-" borsh_skip:"true"`
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

type JupiterSwapParams struct {
	ProgramID  solana.PublicKey
	Authority  solana.PublicKey
	Management solana.PublicKey
	Vault      solana.PublicKey
	Aggregator solana.PublicKey
	InputData  []byte
	Accounts   []*solana.AccountMeta
}

func (instruction *JupiterSwapInstruction) ProgramID() solana.PublicKey {
	return instruction.ProgramId
}

func (instruction *JupiterSwapInstruction) Accounts() (out []*solana.AccountMeta) {
	return instruction.AccountMetaSlice
}

func (instruction *JupiterSwapInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(instruction); err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

func (instruction *JupiterSwapInstruction) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteBytes(JupiterSwapDiscriminant.Bytes(), false)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(instruction.InputData, true)
}

func (instruction *JupiterSwapInstruction) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	id, err := decoder.ReadDiscriminator()
	if err != nil {
		return err
	}
	if id != JupiterSwapDiscriminant {
		return errors.Wrapf(ErrNotJupiterSwap, "discriminant %v", id.Bytes())
	}
	instruction.InputData, err = decoder.ReadByteSlice()
	if err != nil {
		return err
	}
	if decoder.HasRemaining() {
		return errors.Wrapf(ErrNotJupiterSwap, "%d trailing bytes", decoder.Remaining())
	}
	return nil
}

// DecodeJupiterSwapData returns the AnyIx payload of jupiter_swap instruction data.
func DecodeJupiterSwapData(data []byte) ([]byte, error) {
	var ins JupiterSwapInstruction
	if err := ins.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	return ins.InputData, nil
}

// MakeJupiterSwapInstruction prepends the four fixed routing accounts to the
// flattened entry accounts.
func MakeJupiterSwapInstruction(params *JupiterSwapParams) *JupiterSwapInstruction {
	ins := &JupiterSwapInstruction{
		InputData: params.InputData,
		ProgramId: params.ProgramID,
	}

	ins.BaseVariant = bin.BaseVariant{
		Impl:   ins,
		TypeID: JupiterSwapDiscriminant,
	}

	accountMetas := make([]*solana.AccountMeta, 0, 4+len(params.Accounts))
	accountMetas = append(accountMetas,
		solana.Meta(params.Authority).SIGNER(), // Authority
		solana.Meta(params.Management),         // Management
		solana.Meta(params.Vault),              // Vault
		solana.Meta(params.Aggregator),         // Jupiter program
	)
	accountMetas = append(accountMetas, params.Accounts...)

	ins.AccountMetaSlice = accountMetas

	return ins
}

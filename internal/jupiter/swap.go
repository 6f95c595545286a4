package jupiter

import (
	"context"
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/pkg/errors"
)

type SwapRequest struct {
	UserPublicKey                 string        `json:"userPublicKey"`
	WrapAndUnwrapSol              bool          `json:"wrapAndUnwrapSol"`
	UseSharedAccounts             bool          `json:"useSharedAccounts"`
	FeeAccount                    *string       `json:"feeAccount,omitempty"`
	ComputeUnitPriceMicroLamports int64         `json:"computeUnitPriceMicroLamports"`
	AsLegacyTransaction           bool          `json:"asLegacyTransaction"`
	UseTokenLedger                bool          `json:"useTokenLedger"`
	DestinationTokenAccount       *string       `json:"destinationTokenAccount,omitempty"`
	QuoteResponse                 QuoteResponse `json:"quoteResponse"`
}

type InstructionAccount struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type Instruction struct {
	ProgramId string               `json:"programId"`
	Accounts  []InstructionAccount `json:"accounts"`
	Data      string               `json:"data"`
}

type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *Instruction   `json:"tokenLedgerInstruction"`
	ComputeBudgetInstructions   []*Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []*Instruction `json:"setupInstructions"`
	SwapInstruction             *Instruction   `json:"swapInstruction"`
	CleanupInstruction          *Instruction   `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string       `json:"addressLookupTableAddresses"`
}

// NewSwapRequest builds the request used for vault swaps: legacy transaction,
// no shared accounts and no SOL wrapping.
func NewSwapRequest(quote QuoteResponse, user solana.PublicKey) SwapRequest {
	return SwapRequest{
		UserPublicKey:       user.String(),
		AsLegacyTransaction: true,
		QuoteResponse:       quote,
	}
}

// SwapInstructions requests the instructions executing quote.
func (c *Client) SwapInstructions(ctx context.Context, req SwapRequest) (*SwapInstructionsResponse, error) {
	var resp SwapInstructionsResponse
	if err := c.post(ctx, c.baseUrl+swapInstructionsEndpointName, req, &resp); err != nil {
		return nil, err
	}
	if resp.SwapInstruction == nil {
		return nil, errors.New("swap instruction not provided")
	}
	return &resp, nil
}

func (i *Instruction) ToInstruction() (*solana.GenericInstruction, error) {
	programID, err := solana.PublicKeyFromBase58(i.ProgramId)
	if err != nil {
		return nil, errors.Wrap(err, "invalid program public key")
	}

	data, err := base64.StdEncoding.DecodeString(i.Data)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding base64 instruction data")
	}

	accounts := make(solana.AccountMetaSlice, 0, len(i.Accounts))
	for _, account := range i.Accounts {
		pubkey, err := solana.PublicKeyFromBase58(account.Pubkey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid instruction account public key")
		}
		accounts = append(accounts, solana.NewAccountMeta(pubkey, account.IsWritable, account.IsSigner))
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// Setup decodes the setup instructions, skipping any that fail to parse.
func (r *SwapInstructionsResponse) Setup() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(r.SetupInstructions))
	for _, ix := range r.SetupInstructions {
		decoded, err := ix.ToInstruction()
		if err != nil {
			continue
		}
		out = append(out, decoded)
	}
	return out
}

func (r *SwapInstructionsResponse) AddressLookupTables() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(r.AddressLookupTableAddresses))
	for _, addr := range r.AddressLookupTableAddresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			continue
		}
		out = append(out, key)
	}
	return out
}

// NewTransaction builds an unsigned legacy transaction holding only the swap
// instruction. Compute budget instructions are added when both priorityFee
// and cuLimit are given. Signer flags on every account other than payer are
// cleared.
func (r *SwapInstructionsResponse) NewTransaction(payer solana.PublicKey, blockhash solana.Hash, priorityFee *uint64, cuLimit *uint32) (*solana.Transaction, error) {
	ins := []solana.Instruction{}

	if priorityFee != nil && cuLimit != nil {
		ins = append(ins, instructions.ComputeInstructions(instructions.ComputeUnit{
			MicroLamports: *priorityFee,
			Units:         *cuLimit,
		})...)
	}

	swap, err := r.SwapInstruction.ToInstruction()
	if err != nil {
		return nil, errors.Wrap(err, "error decoding swap instruction")
	}
	for _, account := range swap.AccountValues {
		if account.IsSigner && !account.PublicKey.Equals(payer) {
			account.IsSigner = false
		}
	}
	ins = append(ins, swap)

	tx, err := solana.NewTransaction(ins, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, errors.Wrap(err, "new transaction")
	}
	return tx, nil
}

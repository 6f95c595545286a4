package handler

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	bot "github.com/iqbalbaharum/anyix-swap/internal/library"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
)

type SwapService interface {
	NewAnyIxSwapIx(ctx context.Context, quote *jupiter.QuoteResponse, inputMint, outputMint solana.PublicKey) (*bot.AnyIxSwap, error)
	NewAnyIxSwap(ctx context.Context, inputMint, outputMint solana.PublicKey, uiAmount float64) (solana.Signature, error)
}

type SwapInstructionRequest struct {
	Quote      jupiter.QuoteResponse `json:"quote"`
	InputMint  string                `json:"input_mint"`
	OutputMint string                `json:"output_mint"`
}

type AccountResponse struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type SwapInstructionResponse struct {
	ProgramId string            `json:"program_id"`
	Accounts  []AccountResponse `json:"accounts"`
	Data      []byte            `json:"data"`
	Protocols []string          `json:"protocols"`
	Setup     int               `json:"setup_instructions"`
}

type SwapRequest struct {
	InputMint  string  `json:"input_mint"`
	OutputMint string  `json:"output_mint"`
	UIAmount   float64 `json:"ui_amount"`
}

type SwapResponse struct {
	Signature string `json:"signature"`
}

type swapHandler struct {
	swapper SwapService
}

func NewSwapHandler(swapper SwapService) *swapHandler {
	return &swapHandler{swapper: swapper}
}

func parseMints(input, output string) (solana.PublicKey, solana.PublicKey, bool) {
	in, err := solana.PublicKeyFromBase58(input)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	out, err := solana.PublicKeyFromBase58(output)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	return in, out, true
}

func (h *swapHandler) Instruction(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[SwapInstructionRequest](r)
	if err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	in, out, ok := parseMints(decoded.InputMint, decoded.OutputMint)
	if !ok {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	swap, err := h.swapper.NewAnyIxSwapIx(r.Context(), &decoded.Quote, in, out)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if swap.Swap == nil {
		writeError(r.Context(), w, bot.ErrNoSwap)
		return
	}

	data, err := swap.Swap.Data()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	resp := SwapInstructionResponse{
		ProgramId: swap.Swap.ProgramID().String(),
		Data:      data,
		Setup:     len(swap.Setup),
	}
	for _, account := range swap.Swap.Accounts() {
		resp.Accounts = append(resp.Accounts, AccountResponse{
			Pubkey:     account.PublicKey.String(),
			IsSigner:   account.IsSigner,
			IsWritable: account.IsWritable,
		})
	}
	if swap.Result != nil {
		for _, p := range swap.Result.Protocols {
			resp.Protocols = append(resp.Protocols, p.String())
		}
	}

	utils.Encode(w, r, http.StatusOK, resp)
}

func (h *swapHandler) Swap(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[SwapRequest](r)
	if err != nil || decoded.UIAmount <= 0 {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	in, out, ok := parseMints(decoded.InputMint, decoded.OutputMint)
	if !ok {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	signature, err := h.swapper.NewAnyIxSwap(r.Context(), in, out, decoded.UIAmount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, SwapResponse{Signature: signature.String()})
}

package types

const (
	SWAP_STATUS_SENT      = "SENT"
	SWAP_STATUS_CONFIRMED = "CONFIRMED"
	SWAP_STATUS_FAILED    = "FAILED"
)

// SwapRecord is one swap attempt as kept in the swap history.
type SwapRecord struct {
	ID         int64   `json:"id"`
	InputMint  string  `json:"input_mint"`
	OutputMint string  `json:"output_mint"`
	Amount     uint64  `json:"amount"`
	UIAmount   float64 `json:"ui_amount"`
	Route      string  `json:"route"`
	Attempt    int     `json:"attempt"`
	Signature  string  `json:"signature"`
	Status     string  `json:"status"`
	Error      string  `json:"error"`
	Timestamp  int64   `json:"timestamp"`
}

package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/iqbalbaharum/anyix-swap/internal/coder"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
	"github.com/pkg/errors"
)

type EntryRequest struct {
	Protocol     string  `json:"protocol"`
	InputAmount  *uint64 `json:"input_amount,omitempty"`
	MinOutput    uint64  `json:"min_output"`
	Side         string  `json:"side,omitempty"`
	AccountCount uint8   `json:"account_count"`
}

type EncodeRequest struct {
	Entries []EntryRequest `json:"entries"`
}

type EncodeResponse struct {
	Data            string `json:"data"`
	NumInstructions uint8  `json:"num_instructions"`
	AccountTotal    int    `json:"account_total"`
}

type DecodeRequest struct {
	Data string `json:"data"`
}

type EntryResponse struct {
	Protocol     string  `json:"protocol"`
	Ordinal      uint8   `json:"ordinal"`
	InputAmount  *uint64 `json:"input_amount,omitempty"`
	MinOutput    uint64  `json:"min_output"`
	Side         string  `json:"side"`
	AccountCount uint8   `json:"account_count"`
	Data         string  `json:"data"`
}

type DecodeResponse struct {
	NumInstructions uint8           `json:"num_instructions"`
	AccountTotal    int             `json:"account_total"`
	Entries         []EntryResponse `json:"entries"`
}

type anyIxHandler struct {
}

func NewAnyIxHandler() *anyIxHandler {
	return &anyIxHandler{}
}

func parseSide(s string) (coder.Side, error) {
	switch s {
	case "", coder.SideAsk.String():
		return coder.SideAsk, nil
	case coder.SideBid.String():
		return coder.SideBid, nil
	default:
		return 0, errors.Wrapf(coder.ErrMalformedInput, "side %q", s)
	}
}

func (h *anyIxHandler) Encode(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[EncodeRequest](r)
	if err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	entries := make([]coder.Entry, 0, len(decoded.Entries))
	for _, e := range decoded.Entries {
		protocol, err := coder.ProtocolFromName(e.Protocol)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		side, err := parseSide(e.Side)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		entries = append(entries, coder.Entry{
			Data: coder.EntryData(protocol, coder.SwapInputs{
				InputAmount: e.InputAmount,
				MinOutput:   e.MinOutput,
				Side:        side,
			}),
			AccountCount: e.AccountCount,
		})
	}

	batch, err := coder.NewAnyIx(entries)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	data, err := batch.Pack()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, EncodeResponse{
		Data:            base64.StdEncoding.EncodeToString(data),
		NumInstructions: batch.NumInstructions,
		AccountTotal:    batch.AccountTotal(),
	})
}

func (h *anyIxHandler) Decode(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[DecodeRequest](r)
	if err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(decoded.Data)
	if err != nil {
		http.Error(w, ErrInvalidBody, http.StatusBadRequest)
		return
	}

	batch, err := coder.Unpack(data)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	resp := DecodeResponse{
		NumInstructions: batch.NumInstructions,
		AccountTotal:    batch.AccountTotal(),
		Entries:         []EntryResponse{},
	}
	for _, entry := range batch.Entries() {
		out := EntryResponse{
			AccountCount: entry.AccountCount,
			Data:         base64.StdEncoding.EncodeToString(entry.Data),
		}

		protocol, inputs, err := coder.DecodeEntryData(entry.Data)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		out.Protocol = protocol.String()
		out.Ordinal = protocol.Ordinal()
		out.InputAmount = inputs.InputAmount
		out.MinOutput = inputs.MinOutput
		out.Side = inputs.Side.String()

		resp.Entries = append(resp.Entries, out)
	}

	utils.Encode(w, r, http.StatusOK, resp)
}

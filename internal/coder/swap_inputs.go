package coder

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Side is the direction hint carried by SwapInputs.
type Side uint8

const (
	SideAsk Side = 0
	SideBid Side = 1
)

// AToB reports whether the side trades token A for token B.
func (s Side) AToB() bool {
	return s == SideAsk
}

func (s Side) String() string {
	switch s {
	case SideAsk:
		return "ask"
	case SideBid:
		return "bid"
	default:
		return "unknown"
	}
}

const (
	swapInputsSize           = 17
	swapInputsNoSideSize     = 16
	swapInputsNoInputSize    = 9
	swapInputsMinOutputSize  = 8
	swapInputsEmptySize      = 0
	swapInputsMaxPackedBytes = swapInputsSize
)

// SwapInputs is the canonical amount/slippage/direction record every venue
// instruction is reduced to. A nil InputAmount means the full source balance.
type SwapInputs struct {
	InputAmount *uint64 `json:"inputAmount,omitempty"`
	MinOutput   uint64  `json:"minOutput"`
	Side        Side    `json:"side"`
}

// Pack serializes the inputs as [input LE8 if present][min_output LE8][side].
// The result is always 9 or 17 bytes.
func (s SwapInputs) Pack() []byte {
	buf := make([]byte, 0, swapInputsMaxPackedBytes)
	if s.InputAmount != nil {
		buf = binary.LittleEndian.AppendUint64(buf, *s.InputAmount)
	}
	buf = binary.LittleEndian.AppendUint64(buf, s.MinOutput)
	return append(buf, byte(s.Side))
}

// UnpackSwapInputs decodes a packed SwapInputs buffer. The layout is picked
// purely from the buffer length; 16 and 8 byte buffers are legacy shapes
// without a side byte and decode with SideAsk.
func UnpackSwapInputs(data []byte) (SwapInputs, error) {
	var out SwapInputs

	switch len(data) {
	case swapInputsSize:
		in := binary.LittleEndian.Uint64(data[0:8])
		out.InputAmount = &in
		out.MinOutput = binary.LittleEndian.Uint64(data[8:16])
		out.Side = Side(data[16])
	case swapInputsNoSideSize:
		in := binary.LittleEndian.Uint64(data[0:8])
		out.InputAmount = &in
		out.MinOutput = binary.LittleEndian.Uint64(data[8:16])
	case swapInputsNoInputSize:
		out.MinOutput = binary.LittleEndian.Uint64(data[0:8])
		out.Side = Side(data[8])
	case swapInputsMinOutputSize:
		out.MinOutput = binary.LittleEndian.Uint64(data)
	case swapInputsEmptySize:
	default:
		return SwapInputs{}, errors.Wrapf(ErrMalformedInput, "swap inputs length %d", len(data))
	}

	return out, nil
}

// Equal compares two inputs by value, treating InputAmount pointers by content.
func (s SwapInputs) Equal(o SwapInputs) bool {
	if s.MinOutput != o.MinOutput || s.Side != o.Side {
		return false
	}
	if s.InputAmount == nil || o.InputAmount == nil {
		return s.InputAmount == nil && o.InputAmount == nil
	}
	return *s.InputAmount == *o.InputAmount
}

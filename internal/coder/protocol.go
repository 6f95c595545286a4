package coder

import (
	"github.com/pkg/errors"
)

// Protocol identifies a supported venue. The ordinal is stable and is written
// as the first byte of every packed AnyIx entry.
type Protocol uint8

const (
	TokenSwap Protocol = iota
	AldrinV2Swap
	CropperTokenSwap
	CykuraTokenSwap
	LifinityTokenSwap
	MercurialExchange
	RaydiumSwap
	RaydiumSwapV2
	Whirlpool
	Serum
	Saber
	SetTokenLedger
	RiskCheckAndFee
	AldrinSwap
)

// DiscriminantSize is the length of an Anchor instruction selector.
const DiscriminantSize = 8

type Discriminant [DiscriminantSize]byte

type fieldKind uint8

const (
	fieldOptionalU64 fieldKind = iota
	fieldU64
	fieldAToB
	fieldSideEnum
	fieldU8
)

type protocolSpec struct {
	name         string
	discriminant Discriminant
	layout       []fieldKind
}

var (
	feeLayout        = []fieldKind{fieldOptionalU64, fieldU64, fieldU8}
	whirlpoolLayout  = []fieldKind{fieldOptionalU64, fieldU64, fieldAToB, fieldU8}
	orderbookLayout  = []fieldKind{fieldOptionalU64, fieldU64, fieldSideEnum, fieldU8}
	riskCheckLayout  = []fieldKind{fieldU64, fieldU8}
	tokenLedgerEmpty = []fieldKind{}
)

var protocols = map[Protocol]protocolSpec{
	TokenSwap:         {"token_swap", Discriminant{187, 192, 118, 212, 62, 109, 28, 213}, feeLayout},
	AldrinV2Swap:      {"aldrin_v2_swap", Discriminant{190, 166, 89, 139, 33, 152, 16, 10}, orderbookLayout},
	CropperTokenSwap:  {"cropper_token_swap", Discriminant{167, 38, 59, 37, 132, 60, 95, 68}, feeLayout},
	CykuraTokenSwap:   {"cykura_swap", Discriminant{38, 241, 21, 107, 120, 59, 184, 249}, feeLayout},
	LifinityTokenSwap: {"lifinity_token_swap", Discriminant{0, 49, 246, 1, 36, 153, 11, 93}, feeLayout},
	MercurialExchange: {"mercurial_exchange", Discriminant{31, 248, 60, 226, 215, 168, 55, 199}, feeLayout},
	RaydiumSwap:       {"raydium_swap", Discriminant{177, 173, 42, 240, 184, 4, 124, 81}, feeLayout},
	RaydiumSwapV2:     {"raydium_swap_v2", Discriminant{69, 227, 98, 93, 237, 202, 223, 140}, feeLayout},
	Whirlpool:         {"whirlpool_swap", Discriminant{123, 229, 184, 63, 12, 0, 92, 145}, whirlpoolLayout},
	Serum:             {"serum_swap", Discriminant{88, 183, 70, 249, 214, 118, 82, 210}, orderbookLayout},
	Saber:             {"saber_swap", Discriminant{64, 62, 98, 226, 52, 74, 37, 178}, feeLayout},
	SetTokenLedger:    {"set_token_ledger", Discriminant{228, 85, 185, 112, 78, 79, 77, 2}, tokenLedgerEmpty},
	RiskCheckAndFee:   {"risk_check_and_fee", Discriminant{81, 42, 179, 152, 221, 1, 181, 120}, riskCheckLayout},
	AldrinSwap:        {"aldrin_swap", Discriminant{251, 232, 119, 166, 225, 185, 169, 161}, orderbookLayout},
}

// Recognized by the aggregator but not supported as AnyIx entries.
var unsupportedDiscriminants = map[Discriminant]string{
	{55, 100, 17, 243, 242, 181, 43, 165}: "step_token_swap",
	{235, 160, 175, 122, 61, 177, 2, 247}: "crema_token_swap",
}

var protocolByDiscriminant = func() map[Discriminant]Protocol {
	m := make(map[Discriminant]Protocol, len(protocols))
	for p, spec := range protocols {
		m[spec.discriminant] = p
	}
	return m
}()

// Protocols returns every supported protocol in ordinal order.
func Protocols() []Protocol {
	out := make([]Protocol, 0, len(protocols))
	for p := TokenSwap; p <= AldrinSwap; p++ {
		out = append(out, p)
	}
	return out
}

// ProtocolFromOrdinal maps an AnyIx tag byte back to its protocol.
func ProtocolFromOrdinal(tag byte) (Protocol, error) {
	p := Protocol(tag)
	if _, ok := protocols[p]; !ok {
		return 0, errors.Wrapf(ErrUnrecognizedInstruction, "protocol ordinal %d", tag)
	}
	return p, nil
}

// ProtocolFromName resolves the instruction name, e.g. "whirlpool_swap".
func ProtocolFromName(name string) (Protocol, error) {
	for p, spec := range protocols {
		if spec.name == name {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrUnrecognizedInstruction, "protocol %q", name)
}

func (p Protocol) String() string {
	if spec, ok := protocols[p]; ok {
		return spec.name
	}
	return "unknown"
}

func (p Protocol) Ordinal() byte {
	return byte(p)
}

func (p Protocol) Discriminant() Discriminant {
	return protocols[p].discriminant
}

// Directional reports whether the venue payload carries its own direction.
func (p Protocol) Directional() bool {
	switch p {
	case Whirlpool, Serum, AldrinSwap, AldrinV2Swap:
		return true
	}
	return false
}

// Classify identifies the protocol from the first 8 bytes of instruction data.
func Classify(data []byte) (Protocol, error) {
	if len(data) < DiscriminantSize {
		return 0, errors.Wrapf(ErrTooShort, "got %d bytes", len(data))
	}

	var d Discriminant
	copy(d[:], data[:DiscriminantSize])

	if p, ok := protocolByDiscriminant[d]; ok {
		return p, nil
	}
	if name, ok := unsupportedDiscriminants[d]; ok {
		return 0, errors.Wrapf(ErrUnrecognizedInstruction, "%s is not supported", name)
	}
	return 0, errors.Wrapf(ErrUnrecognizedInstruction, "discriminant %v", d)
}

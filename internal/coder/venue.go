package coder

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// Borsh encoding of the orderbook Side enum used by Serum and Aldrin payloads.
const (
	borshSideBid uint8 = 0
	borshSideAsk uint8 = 1
)

// VenueArgs is the decoded payload of a venue instruction.
type VenueArgs struct {
	Inputs         SwapInputs `json:"inputs"`
	PlatformFeeBps uint8      `json:"platformFeeBps"`
}

// DecodeInstruction classifies raw venue instruction data and reduces its
// payload to SwapInputs. Data that is exactly a discriminant yields defaults.
func DecodeInstruction(data []byte) (Protocol, SwapInputs, error) {
	p, args, err := DecodeVenue(data)
	if err != nil {
		return 0, SwapInputs{}, err
	}
	return p, args.Inputs, nil
}

func DecodeVenue(data []byte) (Protocol, VenueArgs, error) {
	p, err := Classify(data)
	if err != nil {
		return 0, VenueArgs{}, err
	}

	payload := data[DiscriminantSize:]
	if len(payload) == 0 {
		return p, VenueArgs{}, nil
	}

	args, err := decodePayload(p, payload)
	if err != nil {
		return 0, VenueArgs{}, errors.WithMessagef(err, "decode %s", p)
	}
	return p, args, nil
}

func decodePayload(p Protocol, payload []byte) (VenueArgs, error) {
	var args VenueArgs
	dec := bin.NewBorshDecoder(payload)

	for _, field := range protocols[p].layout {
		switch field {
		case fieldOptionalU64:
			tag, err := dec.ReadUint8()
			if err != nil {
				return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
			}
			switch tag {
			case 0:
			case 1:
				amount, err := dec.ReadUint64(bin.LE)
				if err != nil {
					return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
				}
				args.Inputs.InputAmount = &amount
			default:
				return VenueArgs{}, errors.Wrapf(ErrMalformedInput, "option tag %d", tag)
			}
		case fieldU64:
			minOut, err := dec.ReadUint64(bin.LE)
			if err != nil {
				return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
			}
			args.Inputs.MinOutput = minOut
		case fieldAToB:
			b, err := dec.ReadUint8()
			if err != nil {
				return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
			}
			switch b {
			case 1:
				args.Inputs.Side = SideAsk
			case 0:
				args.Inputs.Side = SideBid
			default:
				return VenueArgs{}, errors.Wrapf(ErrMalformedInput, "bool value %d", b)
			}
		case fieldSideEnum:
			b, err := dec.ReadUint8()
			if err != nil {
				return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
			}
			switch b {
			case borshSideBid:
				args.Inputs.Side = SideBid
			case borshSideAsk:
				args.Inputs.Side = SideAsk
			default:
				return VenueArgs{}, errors.Wrapf(ErrMalformedInput, "side variant %d", b)
			}
		case fieldU8:
			fee, err := dec.ReadUint8()
			if err != nil {
				return VenueArgs{}, errors.Wrap(ErrTruncatedInput, err.Error())
			}
			args.PlatformFeeBps = fee
		}
	}

	if dec.HasRemaining() {
		return VenueArgs{}, errors.Wrapf(ErrMalformedInput, "%d trailing bytes", dec.Remaining())
	}
	return args, nil
}

// EncodeVenue builds venue instruction data (discriminant + borsh payload)
// for the given inputs.
func EncodeVenue(p Protocol, args VenueArgs) ([]byte, error) {
	spec, ok := protocols[p]
	if !ok {
		return nil, errors.Wrapf(ErrUnrecognizedInstruction, "protocol ordinal %d", p)
	}

	buf := new(bytes.Buffer)
	buf.Write(spec.discriminant[:])
	enc := bin.NewBorshEncoder(buf)

	for _, field := range spec.layout {
		var err error
		switch field {
		case fieldOptionalU64:
			err = enc.WriteOption(args.Inputs.InputAmount != nil)
			if err == nil && args.Inputs.InputAmount != nil {
				err = enc.WriteUint64(*args.Inputs.InputAmount, bin.LE)
			}
		case fieldU64:
			err = enc.WriteUint64(args.Inputs.MinOutput, bin.LE)
		case fieldAToB:
			err = enc.WriteBool(args.Inputs.Side.AToB())
		case fieldSideEnum:
			side := borshSideAsk
			if args.Inputs.Side == SideBid {
				side = borshSideBid
			}
			err = enc.WriteUint8(side)
		case fieldU8:
			err = enc.WriteUint8(args.PlatformFeeBps)
		}
		if err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// EntryData is the data field of a packed AnyIx entry: the protocol ordinal
// followed by the packed inputs. SetTokenLedger carries no inputs and
// RiskCheckAndFee never carries an input amount.
func EntryData(p Protocol, inputs SwapInputs) []byte {
	switch p {
	case SetTokenLedger:
		return []byte{p.Ordinal()}
	case RiskCheckAndFee:
		inputs.InputAmount = nil
	}
	return append([]byte{p.Ordinal()}, inputs.Pack()...)
}

// DecodeEntryData is the inverse of EntryData.
func DecodeEntryData(data []byte) (Protocol, SwapInputs, error) {
	if len(data) == 0 {
		return 0, SwapInputs{}, errors.Wrap(ErrTooShort, "empty entry")
	}

	p, err := ProtocolFromOrdinal(data[0])
	if err != nil {
		return 0, SwapInputs{}, err
	}

	inputs, err := UnpackSwapInputs(data[1:])
	if err != nil {
		return 0, SwapInputs{}, err
	}
	return p, inputs, nil
}

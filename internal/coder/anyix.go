package coder

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	MaxInstructions    = 255
	MaxInstructionData = 255
)

// Entry is one sub-instruction of an AnyIx batch.
type Entry struct {
	Data         []byte `json:"data"`
	AccountCount uint8  `json:"accountCount"`
}

// AnyIx is the compact batch layout:
//
//	[N u8][N data sizes u8][N account counts u8][concatenated data]
type AnyIx struct {
	NumInstructions          uint8
	InstructionDataSizes     []uint8
	InstructionAccountCounts []uint8
	InstructionDatas         [][]byte
}

func NewAnyIx(entries []Entry) (*AnyIx, error) {
	if len(entries) > MaxInstructions {
		return nil, errors.Wrapf(ErrTooManyInstructions, "got %d", len(entries))
	}

	ix := &AnyIx{
		NumInstructions:          uint8(len(entries)),
		InstructionDataSizes:     make([]uint8, 0, len(entries)),
		InstructionAccountCounts: make([]uint8, 0, len(entries)),
		InstructionDatas:         make([][]byte, 0, len(entries)),
	}
	for i, e := range entries {
		if len(e.Data) > MaxInstructionData {
			return nil, errors.Wrapf(ErrDataTooLong, "entry %d has %d bytes", i, len(e.Data))
		}
		ix.InstructionDataSizes = append(ix.InstructionDataSizes, uint8(len(e.Data)))
		ix.InstructionAccountCounts = append(ix.InstructionAccountCounts, e.AccountCount)
		ix.InstructionDatas = append(ix.InstructionDatas, e.Data)
	}
	return ix, nil
}

// Pack serializes entries into the AnyIx wire layout.
func Pack(entries []Entry) ([]byte, error) {
	ix, err := NewAnyIx(entries)
	if err != nil {
		return nil, err
	}
	return ix.Pack()
}

func (ix *AnyIx) Pack() ([]byte, error) {
	n := int(ix.NumInstructions)
	if len(ix.InstructionDataSizes) != n || len(ix.InstructionAccountCounts) != n || len(ix.InstructionDatas) != n {
		return nil, errors.Wrap(ErrMalformedInput, "instruction arrays disagree with count")
	}

	var buf bytes.Buffer
	buf.WriteByte(ix.NumInstructions)
	buf.Write(ix.InstructionDataSizes)
	buf.Write(ix.InstructionAccountCounts)
	for i, data := range ix.InstructionDatas {
		if len(data) != int(ix.InstructionDataSizes[i]) {
			return nil, errors.Wrapf(ErrMalformedInput, "entry %d size %d, data %d", i, ix.InstructionDataSizes[i], len(data))
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// Unpack parses the AnyIx wire layout. Extra bytes after the last entry are
// rejected.
func Unpack(data []byte) (*AnyIx, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrTruncatedInput, "empty buffer")
	}

	n := int(data[0])
	header := 1 + 2*n
	if len(data) < header {
		return nil, errors.Wrapf(ErrTruncatedInput, "header needs %d bytes, got %d", header, len(data))
	}

	ix := &AnyIx{
		NumInstructions:          uint8(n),
		InstructionDataSizes:     append([]uint8(nil), data[1:1+n]...),
		InstructionAccountCounts: append([]uint8(nil), data[1+n:header]...),
		InstructionDatas:         make([][]byte, 0, n),
	}

	total := 0
	for _, size := range ix.InstructionDataSizes {
		total += int(size)
	}

	body := data[header:]
	if len(body) < total {
		return nil, errors.Wrapf(ErrTruncatedInput, "need %d data bytes, got %d", total, len(body))
	}
	if len(body) > total {
		return nil, errors.Wrapf(ErrMalformedInput, "%d trailing bytes", len(body)-total)
	}

	offset := 0
	for _, size := range ix.InstructionDataSizes {
		ix.InstructionDatas = append(ix.InstructionDatas, append([]byte(nil), body[offset:offset+int(size)]...))
		offset += int(size)
	}
	return ix, nil
}

func (ix *AnyIx) Entries() []Entry {
	out := make([]Entry, 0, len(ix.InstructionDatas))
	for i, data := range ix.InstructionDatas {
		out = append(out, Entry{Data: data, AccountCount: ix.InstructionAccountCounts[i]})
	}
	return out
}

// AccountTotal is the number of accounts the batch expects to be supplied.
func (ix *AnyIx) AccountTotal() int {
	total := 0
	for _, c := range ix.InstructionAccountCounts {
		total += int(c)
	}
	return total
}

// Partition splits a flat account list into consecutive per-entry slices
// according to the account counts.
func Partition[T any](ix *AnyIx, accounts []T) ([][]T, error) {
	if want := ix.AccountTotal(); len(accounts) < want {
		return nil, errors.Wrapf(ErrTruncatedInput, "need %d accounts, got %d", want, len(accounts))
	}

	out := make([][]T, 0, len(ix.InstructionAccountCounts))
	offset := 0
	for _, c := range ix.InstructionAccountCounts {
		out = append(out, accounts[offset:offset+int(c)])
		offset += int(c)
	}
	return out, nil
}

package rpc

import (
	"context"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

// SPL token layouts: the mint sits at the head of a 165 byte token account
// and the decimals byte follows authority(36) + supply(8) in a mint account.
const (
	tokenAccountSize   = 165
	mintDecimalsOffset = 44
)

var (
	ErrShortAccountData = errors.New("account data shorter than expected")
	ErrNotTokenAccount  = errors.New("not an spl token account")
)

// VaultMint returns the mint of the token account vault. The whole account is
// read so that its owner and size can be checked before trusting the mint.
func (c *Client) VaultMint(ctx context.Context, vault solana.PublicKey) (solana.PublicKey, error) {
	account, err := c.GetAccountInfo(ctx, vault, nil)
	if err != nil {
		return solana.PublicKey{}, err
	}

	if !account.Owner.Equals(solana.TokenProgramID) {
		return solana.PublicKey{}, errors.Wrapf(ErrNotTokenAccount, "%s is owned by %s", vault, account.Owner)
	}

	data := account.Data.GetBinary()
	if len(data) != tokenAccountSize {
		return solana.PublicKey{}, errors.Wrapf(ErrNotTokenAccount, "%s has %d bytes of data", vault, len(data))
	}

	return solana.PublicKeyFromBytes(data[:solana.PublicKeyLength]), nil
}

func (c *Client) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	data, err := c.GetAccountData(ctx, mint, &rpc.DataSlice{
		Offset: pointer.ToUint64(mintDecimalsOffset),
		Length: pointer.ToUint64(1),
	})
	if err != nil {
		return 0, err
	}

	if len(data) < 1 {
		return 0, errors.Wrapf(ErrShortAccountData, "mint %s", mint)
	}

	return data[0], nil
}

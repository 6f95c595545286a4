package anyix

import (
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Replacer returns the meta that should stand in for account, or false when
// the account is kept.
type Replacer func(account *solana.AccountMeta, replacements map[solana.PublicKey]solana.PublicKey) (*solana.AccountMeta, bool)

// ReplaceByAccountPubkey swaps an account by address, keeping its flags.
func ReplaceByAccountPubkey(account *solana.AccountMeta, replacements map[solana.PublicKey]solana.PublicKey) (*solana.AccountMeta, bool) {
	to, ok := replacements[account.PublicKey]
	if !ok {
		return nil, false
	}
	return &solana.AccountMeta{
		PublicKey:  to,
		IsWritable: account.IsWritable,
		IsSigner:   account.IsSigner,
	}, true
}

// ReplaceAccounts applies fn over every account in place.
func ReplaceAccounts(log *logrus.Logger, accounts []*solana.AccountMeta, fn Replacer, replacements map[solana.PublicKey]solana.PublicKey) {
	if len(replacements) == 0 {
		return
	}
	for i, account := range accounts {
		if next, ok := fn(account, replacements); ok {
			log.Warnf("replacing %s with %s", account.PublicKey, next.PublicKey)
			accounts[i] = next
		}
	}
}

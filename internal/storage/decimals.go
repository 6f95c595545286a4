package storage

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DecimalsStorage persists mint decimals, hashed under the mint address.
type DecimalsStorage struct {
	client *redis.Client
}

func NewDecimalsStorage(client *redis.Client) *DecimalsStorage {
	return &DecimalsStorage{client: client}
}

func (s *DecimalsStorage) SetDecimals(ctx context.Context, mint solana.PublicKey, decimals uint8) error {
	return s.client.HSet(ctx, mint.String(), KEY_DECIMALS, decimals).Err()
}

// GetDecimals returns ErrNotFound when the mint has not been stored.
func (s *DecimalsStorage) GetDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	data, err := s.client.HGet(ctx, mint.String(), KEY_DECIMALS).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, errors.Wrapf(ErrNotFound, "decimals for %s", mint)
		}
		return 0, err
	}

	decimals, err := strconv.ParseUint(data, 10, 8)
	if err != nil {
		return 0, errors.Wrap(err, ErrUnmarshal)
	}

	return uint8(decimals), nil
}

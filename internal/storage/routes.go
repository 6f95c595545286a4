package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RouteKey struct {
	Input  solana.PublicKey
	Output solana.PublicKey
}

func (k RouteKey) String() string {
	return k.Input.String() + ":" + k.Output.String()
}

func ParseRouteKey(s string) (RouteKey, error) {
	input, output, ok := strings.Cut(s, ":")
	if !ok {
		return RouteKey{}, errors.Errorf("malformed route key %q", s)
	}

	in, err := solana.PublicKeyFromBase58(input)
	if err != nil {
		return RouteKey{}, errors.Wrapf(err, "route key %q", s)
	}
	out, err := solana.PublicKeyFromBase58(output)
	if err != nil {
		return RouteKey{}, errors.Wrapf(err, "route key %q", s)
	}

	return RouteKey{Input: in, Output: out}, nil
}

// RouteStorage snapshots the route cache, one hash field per pair.
type RouteStorage struct {
	client *redis.Client
}

func NewRouteStorage(client *redis.Client) *RouteStorage {
	return &RouteStorage{client: client}
}

func (s *RouteStorage) SetRoutes(ctx context.Context, key RouteKey, entry *types.RouteEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, ErrMarshal)
	}

	return s.client.HSet(ctx, KEY_ROUTES, key.String(), data).Err()
}

func (s *RouteStorage) GetRoutes(ctx context.Context, key RouteKey) (*types.RouteEntry, error) {
	data, err := s.client.HGet(ctx, KEY_ROUTES, key.String()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrapf(ErrNotFound, "routes for %s", key)
		}
		return nil, err
	}

	var entry types.RouteEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, errors.Wrap(err, ErrUnmarshal)
	}

	return &entry, nil
}

// GetAllRoutes skips fields that no longer parse.
func (s *RouteStorage) GetAllRoutes(ctx context.Context) (map[RouteKey]*types.RouteEntry, error) {
	fields, err := s.client.HGetAll(ctx, KEY_ROUTES).Result()
	if err != nil {
		return nil, err
	}

	routes := make(map[RouteKey]*types.RouteEntry, len(fields))
	for field, data := range fields {
		key, err := ParseRouteKey(field)
		if err != nil {
			continue
		}

		var entry types.RouteEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}
		routes[key] = &entry
	}

	return routes, nil
}

func (s *RouteStorage) DeleteRoutes(ctx context.Context) error {
	return s.client.Del(ctx, KEY_ROUTES).Err()
}

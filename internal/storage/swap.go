package storage

import (
	"context"
	"database/sql"

	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
	"github.com/pkg/errors"
)

var swapColumns = map[string]bool{
	"id":          true,
	"input_mint":  true,
	"output_mint": true,
	"amount":      true,
	"ui_amount":   true,
	"route":       true,
	"attempt":     true,
	"signature":   true,
	"status":      true,
	"error":       true,
	"timestamp":   true,
}

// SwapStorage keeps the swap history in mysql.
type SwapStorage struct {
	client *sql.DB
}

func NewSwapStorage(db *sql.DB) *SwapStorage {
	return &SwapStorage{client: db}
}

func (s *SwapStorage) Insert(ctx context.Context, swap *types.SwapRecord) (int64, error) {
	if swap == nil || swap.InputMint == "" || swap.OutputMint == "" {
		return 0, ErrInvalidRecord
	}

	query := `
			INSERT INTO swaps (input_mint, output_mint, amount, ui_amount, route, attempt, signature, status, error, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

	stmt, err := s.client.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.Wrap(err, ErrPrepareStatement)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(
		ctx,
		swap.InputMint,
		swap.OutputMint,
		swap.Amount,
		swap.UIAmount,
		swap.Route,
		swap.Attempt,
		swap.Signature,
		swap.Status,
		swap.Error,
		swap.Timestamp,
	)
	if err != nil {
		return 0, errors.Wrap(err, ErrExecuteStatement)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, ErrRetrieveRows)
	}

	return id, nil
}

func (s *SwapStorage) UpdateStatus(ctx context.Context, id int64, status string, errMsg string) error {
	res, err := s.client.ExecContext(ctx, `UPDATE swaps SET status = ?, error = ? WHERE id = ?`, status, errMsg, id)
	if err != nil {
		return errors.Wrap(err, ErrExecuteStatement)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, ErrRetrieveRows)
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "swap %d", id)
	}

	return nil
}

func (s *SwapStorage) Search(ctx context.Context, filter types.MySQLFilter) ([]types.SwapRecord, error) {
	if err := utils.ValidateFilter(filter, swapColumns); err != nil {
		return nil, err
	}

	query, values := utils.BuildSearchQuery(TABLE_NAME_SWAP, filter)

	rows, err := s.client.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, errors.Wrap(err, ErrExecuteQuery)
	}
	defer rows.Close()

	swaps := []types.SwapRecord{}
	for rows.Next() {
		var swap types.SwapRecord
		if err := rows.Scan(
			&swap.ID,
			&swap.InputMint,
			&swap.OutputMint,
			&swap.Amount,
			&swap.UIAmount,
			&swap.Route,
			&swap.Attempt,
			&swap.Signature,
			&swap.Status,
			&swap.Error,
			&swap.Timestamp,
		); err != nil {
			return nil, errors.Wrap(err, ErrScanData)
		}
		swaps = append(swaps, swap)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, ErrExecuteQuery)
	}

	return swaps, nil
}

// Delete removes the swaps matching filter; an empty filter clears the table.
func (s *SwapStorage) Delete(ctx context.Context, filter types.MySQLFilter) (int64, error) {
	if err := utils.ValidateFilter(filter, swapColumns); err != nil {
		return 0, err
	}

	query, values := utils.BuildDeleteQuery(TABLE_NAME_SWAP, filter)

	res, err := s.client.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, errors.Wrap(err, ErrExecuteStatement)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, ErrRetrieveRows)
	}

	return affected, nil
}

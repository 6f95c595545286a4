package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var swapRowColumns = []string{
	"id", "input_mint", "output_mint", "amount", "ui_amount", "route",
	"attempt", "signature", "status", "error", "timestamp",
}

func newSwapStorage(t *testing.T) (*SwapStorage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSwapStorage(db), mock
}

func sampleSwap() *types.SwapRecord {
	return &types.SwapRecord{
		InputMint:  "So11111111111111111111111111111111111111112",
		OutputMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:     1000000000,
		UIAmount:   1,
		Route:      "orca (100%)",
		Attempt:    1,
		Signature:  "sig",
		Status:     types.SWAP_STATUS_SENT,
		Timestamp:  1700000000,
	}
}

func TestSwapInsert(t *testing.T) {
	s, mock := newSwapStorage(t)
	swap := sampleSwap()

	mock.ExpectPrepare("INSERT INTO swaps").
		ExpectExec().
		WithArgs(swap.InputMint, swap.OutputMint, swap.Amount, swap.UIAmount, swap.Route,
			swap.Attempt, swap.Signature, swap.Status, swap.Error, swap.Timestamp).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := s.Insert(context.Background(), swap)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapInsertInvalid(t *testing.T) {
	s, _ := newSwapStorage(t)

	_, err := s.Insert(context.Background(), &types.SwapRecord{})
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestSwapInsertExecError(t *testing.T) {
	s, mock := newSwapStorage(t)

	mock.ExpectPrepare("INSERT INTO swaps").
		ExpectExec().
		WillReturnError(errors.New("deadlock"))

	_, err := s.Insert(context.Background(), sampleSwap())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrExecuteStatement)
}

func TestSwapUpdateStatus(t *testing.T) {
	s, mock := newSwapStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE swaps SET status = ?, error = ? WHERE id = ?")).
		WithArgs(types.SWAP_STATUS_CONFIRMED, "", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE swaps").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateStatus(context.Background(), 7, types.SWAP_STATUS_CONFIRMED, ""))

	err := s.UpdateStatus(context.Background(), 8, types.SWAP_STATUS_FAILED, "boom")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapSearch(t *testing.T) {
	s, mock := newSwapStorage(t)

	rows := sqlmock.NewRows(swapRowColumns).
		AddRow(1, "in", "out", 10, 0.5, "orca (100%)", 1, "sig1", types.SWAP_STATUS_CONFIRMED, "", 100).
		AddRow(2, "in", "out", 10, 0.5, "raydium (100%)", 2, "", types.SWAP_STATUS_FAILED, "expired", 101)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM swaps WHERE input_mint = ? LIMIT 2")).
		WithArgs("in").
		WillReturnRows(rows)

	swaps, err := s.Search(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "input_mint", Op: "=", Query: "in"}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, swaps, 2)
	assert.Equal(t, int64(1), swaps[0].ID)
	assert.Equal(t, uint64(10), swaps[0].Amount)
	assert.Equal(t, "expired", swaps[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapSearchRejectsUnknownColumn(t *testing.T) {
	s, _ := newSwapStorage(t)

	_, err := s.Search(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "1=1 OR id", Op: "=", Query: "1"}},
	})
	assert.True(t, errors.Is(err, utils.ErrInvalidFilter))
}

func TestSwapDelete(t *testing.T) {
	s, mock := newSwapStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM swaps WHERE status = ?")).
		WithArgs(types.SWAP_STATUS_FAILED).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM swaps")).
		WillReturnResult(sqlmock.NewResult(0, 10))

	n, err := s.Delete(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "status", Op: "=", Query: types.SWAP_STATUS_FAILED}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Delete(context.Background(), types.MySQLFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

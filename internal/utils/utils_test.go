package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter types.MySQLFilter
		query  string
		values []any
	}{
		{
			name:  "no filter",
			query: "SELECT * FROM swaps",
		},
		{
			name: "two conditions with paging",
			filter: types.MySQLFilter{
				Query: []types.MySQLQuery{
					{Column: "input_mint", Op: "=", Query: "So11111111111111111111111111111111111111112"},
					{Column: "status", Op: "like", Query: "CONF%"},
				},
				Limit:  10,
				Offset: 20,
			},
			query:  "SELECT * FROM swaps WHERE input_mint = ? AND status LIKE ? LIMIT 10 OFFSET 20",
			values: []any{"So11111111111111111111111111111111111111112", "CONF%"},
		},
		{
			name: "newest first",
			filter: types.MySQLFilter{
				Query:   []types.MySQLQuery{{Column: "status", Op: "!=", Query: "SENT"}},
				OrderBy: "timestamp",
				Desc:    true,
				Limit:   1,
			},
			query:  "SELECT * FROM swaps WHERE status != ? ORDER BY timestamp DESC LIMIT 1",
			values: []any{"SENT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, values := BuildSearchQuery("swaps", tt.filter)
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.values, values)
		})
	}
}

func TestBuildDeleteQuery(t *testing.T) {
	query, values := BuildDeleteQuery("swaps", types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "status", Op: "=", Query: "FAILED"}},
		Limit: 5,
	})
	assert.Equal(t, "DELETE FROM swaps WHERE status = ?", query)
	assert.Equal(t, []any{"FAILED"}, values)
}

func TestValidateFilter(t *testing.T) {
	columns := map[string]bool{"status": true}

	assert.NoError(t, ValidateFilter(types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "status", Op: ">=", Query: "x"}},
	}, columns))

	err := ValidateFilter(types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "status; DROP TABLE swaps", Op: "=", Query: "x"}},
	}, columns)
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	err = ValidateFilter(types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "status", Op: "OR 1=1 --", Query: "x"}},
	}, columns)
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	assert.True(t, errors.Is(ValidateFilter(types.MySQLFilter{Limit: -1}, columns), ErrInvalidFilter))
	assert.True(t, errors.Is(ValidateFilter(types.MySQLFilter{OrderBy: "id; --"}, columns), ErrInvalidFilter))
}

func TestEncodeDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limit":3,"offset":1}`))
	filter, err := Decode[types.MySQLFilter](req)
	require.NoError(t, err)
	assert.Equal(t, 3, filter.Limit)

	rec := httptest.NewRecorder()
	require.NoError(t, Encode(rec, req, http.StatusCreated, filter))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"query":null,"limit":3,"offset":1}`, rec.Body.String())

	_, err = Decode[types.MySQLFilter](httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)))
	assert.Error(t, err)
}

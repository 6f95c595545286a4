package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/pkg/errors"
)

var ErrInvalidFilter = errors.New("invalid filter")

var allowedOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<":    true,
	"<=":   true,
	">":    true,
	">=":   true,
	"LIKE": true,
}

func Encode[T any](w http.ResponseWriter, r *http.Request, status int, v T) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func Decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// ValidateFilter checks every column against columns and every operator
// against the supported comparison set.
func ValidateFilter(filter types.MySQLFilter, columns map[string]bool) error {
	for _, q := range filter.Query {
		if !columns[q.Column] {
			return errors.Wrapf(ErrInvalidFilter, "unknown column %q", q.Column)
		}
		if !allowedOps[strings.ToUpper(q.Op)] {
			return errors.Wrapf(ErrInvalidFilter, "unsupported operator %q", q.Op)
		}
	}
	if filter.OrderBy != "" && !columns[filter.OrderBy] {
		return errors.Wrapf(ErrInvalidFilter, "unknown order column %q", filter.OrderBy)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return errors.Wrap(ErrInvalidFilter, "negative limit or offset")
	}
	return nil
}

func buildWhere(filter types.MySQLFilter) (string, []any) {
	var (
		clause string
		values []any
	)
	for idx, q := range filter.Query {
		if idx == 0 {
			clause += " WHERE "
		}

		clause += fmt.Sprintf("%s %s ?", q.Column, strings.ToUpper(q.Op))
		values = append(values, q.Query)

		if idx < len(filter.Query)-1 {
			clause += " AND "
		}
	}
	return clause, values
}

func BuildSearchQuery(tableName string, filter types.MySQLFilter) (string, []any) {
	where, values := buildWhere(filter)
	query := fmt.Sprintf(`SELECT * FROM %s`, tableName) + where

	if filter.OrderBy != "" {
		query += " ORDER BY " + filter.OrderBy
		if filter.Desc {
			query += " DESC"
		}
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, values
}

func BuildDeleteQuery(tableName string, filter types.MySQLFilter) (string, []any) {
	where, values := buildWhere(filter)
	return fmt.Sprintf(`DELETE FROM %s`, tableName) + where, values
}

package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
	"github.com/pkg/errors"
)

type HistoryStore interface {
	Search(ctx context.Context, filter types.MySQLFilter) ([]types.SwapRecord, error)
	Delete(ctx context.Context, filter types.MySQLFilter) (int64, error)
}

type historyHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *historyHandler {
	return &historyHandler{store: store}
}

// decodeFilter treats an empty body as an empty filter.
func decodeFilter(r *http.Request) (types.MySQLFilter, error) {
	filter, err := utils.Decode[types.MySQLFilter](r)
	if err != nil && errors.Is(err, io.EOF) {
		return types.MySQLFilter{}, nil
	}
	return filter, err
}

func (h *historyHandler) Get(w http.ResponseWriter, r *http.Request) {
	decoded, err := decodeFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	swaps, err := h.store.Search(r.Context(), decoded)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, swaps)
}

func (h *historyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	decoded, err := decodeFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.store.Delete(r.Context(), decoded); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

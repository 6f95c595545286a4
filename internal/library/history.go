package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/iqbalbaharum/anyix-swap/internal/types"
)

func parseAmount(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// record stores the attempt and returns its id, or zero when it was not kept.
func (s *Swapper) record(ctx context.Context, swap *types.SwapRecord, cause error) int64 {
	if s.History == nil {
		return 0
	}

	swap.Timestamp = time.Now().Unix()
	if cause != nil {
		swap.Error = cause.Error()
	}

	id, err := s.History.Insert(ctx, swap)
	if err != nil {
		s.Log.Warnf("failed to record swap: %v", err)
		return 0
	}
	return id
}

func (s *Swapper) updateStatus(ctx context.Context, id int64, status string, cause error) {
	if s.History == nil || id == 0 {
		return
	}

	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	if err := s.History.UpdateStatus(ctx, id, status, msg); err != nil {
		s.Log.Warnf("failed to update swap %d: %v", id, err)
	}
}

package textsort

import (
	"log/slog"
	"sync/atomic"
)

// rlimitHeadroom is added on top of the sorted-file budget when raising the
// process descriptor limit, covering input, output and temp file handles.
const rlimitHeadroom = 256

// governor accounts for the file descriptors held open by the merge
// machinery. The budget is fixed per run; the open counter is the only
// mutable state shared across workers and is atomic.
type governor struct {
	budget int
	open   atomic.Int64
}

func newGovernor(budget int) *governor {
	return &governor{budget: budget}
}

func (g *governor) acquire() {
	g.open.Add(1)
}

func (g *governor) release() {
	g.open.Add(-1)
}

// fanInLimit is the largest number of additional files a merge pass may hold
// open, the budget minus what the machinery already has open. Merges over
// more inputs run in bounded passes. The floor of 2 keeps merging possible
// even when concurrent workers hold most of the budget.
func (g *governor) fanInLimit() int {
	limit := g.budget - int(g.open.Load())
	if limit < 2 {
		limit = 2
	}
	return limit
}

// ensureFileLimit raises the process soft RLIMIT_NOFILE to cover the run's
// descriptor budget and returns a restore function. Fails fast with a
// resource error when the limit cannot be raised, rather than mid-merge.
func ensureFileLimit(budget int) (restore func(), err error) {
	soft, hard, err := getFileLimit()
	if err != nil {
		return nil, newResourceError(err, "RLIMIT_NOFILE", "getrlimit")
	}
	need := uint64(budget + rlimitHeadroom)
	if need <= soft {
		return func() {}, nil
	}
	slog.Info("raising file descriptor limit",
		slog.Uint64("soft", soft), slog.Uint64("hard", hard), slog.Uint64("new_soft", need))
	if err := setFileLimit(need, hard); err != nil {
		return nil, newResourceError(err, "RLIMIT_NOFILE", "setrlimit")
	}
	return func() {
		if err := setFileLimit(soft, hard); err != nil {
			slog.Warn("restoring file descriptor limit failed", slog.Any("error", err))
		}
	}, nil
}

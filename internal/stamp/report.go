package stamp

import (
	"time"

	"github.com/samber/lo"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Action is what happened to a single file.
type Action int

const (
	// ActionUpdated means an existing marker line was replaced.
	ActionUpdated Action = iota
	// ActionInserted means a marker line was added at the top of the file.
	ActionInserted
	// ActionUnchanged means the file already carried the exact marker line.
	ActionUnchanged
	// ActionSkipped means the file was left alone on purpose (empty file policy).
	ActionSkipped
	// ActionFailed means the file could not be read or written.
	ActionFailed
)

// String returns the lowercase name of the action.
func (a Action) String() string {
	switch a {
	case ActionUpdated:
		return "updated"
	case ActionInserted:
		return "inserted"
	case ActionUnchanged:
		return "unchanged"
	case ActionSkipped:
		return "skipped"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult is the outcome of stamping one file.
type FileResult struct {
	Path         string
	Action       Action
	BytesWritten int
	Err          error
}

// Report aggregates the results of one stamping pass.
type Report struct {
	Timestamp string
	Results   []FileResult
	Duration  time.Duration
}

// Count returns the number of files that ended with action.
func (r *Report) Count(action Action) int {
	return lo.CountBy(r.Results, func(res FileResult) bool {
		return res.Action == action
	})
}

// Changed returns the number of files that were rewritten.
func (r *Report) Changed() int {
	return r.Count(ActionUpdated) + r.Count(ActionInserted)
}

// BytesWritten returns the total bytes written across all files.
func (r *Report) BytesWritten() int64 {
	return lo.SumBy(r.Results, func(res FileResult) int64 {
		return int64(res.BytesWritten)
	})
}

// Failures returns the results that ended in ActionFailed.
func (r *Report) Failures() []FileResult {
	return lo.Filter(r.Results, func(res FileResult, _ int) bool {
		return res.Action == ActionFailed
	})
}

// Err combines every per-file error, or returns nil when all files succeeded.
func (r *Report) Err() error {
	return gitstampErrors.Join(lo.Map(r.Failures(), func(res FileResult, _ int) error {
		return res.Err
	})...)
}

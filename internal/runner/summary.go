package runner

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/bashhack/gitstamp/internal/git"
	"github.com/bashhack/gitstamp/internal/stamp"
)

// reportCycle logs the outcome of a cycle, and its step trace when verbose.
func (r *Runner) reportCycle(c *Cycle) {
	if c.Stamp != nil {
		r.logger.InfoToUser("Cycle %d at %s: %d updated, %d inserted, %d unchanged, %d failed (%s written)",
			c.Number, c.Timestamp,
			c.Stamp.Count(stamp.ActionUpdated),
			c.Stamp.Count(stamp.ActionInserted),
			c.Stamp.Count(stamp.ActionUnchanged),
			c.Stamp.Count(stamp.ActionFailed),
			humanize.Bytes(uint64(c.Stamp.BytesWritten())))
	}

	if c.Publication != nil {
		switch c.Publication.State {
		case git.StatePushed:
			r.logger.Success("Published %q to %s/%s", c.Publication.Message, r.settings.RemoteName, r.settings.RemoteBranch)
		case git.StateNothingToCommit:
			r.logger.InfoToUser("Nothing to commit")
		default:
			if c.Publication.State.Failed() {
				r.logger.WarningToUser("Publishing ended in %s", c.Publication.State)
			}
		}
	}

	if c.Err != nil {
		r.logger.Error("Cycle %d failed: %v", c.Number, c.Err)
	}

	if r.verbose && c.Publication != nil {
		for _, step := range c.Publication.Steps {
			r.logger.StatusMessage("  %s", traceLine(step))
		}
	}
}

func traceLine(step git.Step) string {
	name := step.Name
	if step.Target != "" {
		name += " " + step.Target
	}

	line := name + " -> " + step.State.String() + " (" + step.Duration.Round(time.Millisecond).String() + ")"
	switch {
	case step.Tolerated():
		line += " ignored: " + step.Err.Error()
	case step.Err != nil:
		line += " error: " + step.Err.Error()
	}
	return line
}

// PrintSummary prints a summary of the gitstamp session
func (r *Runner) PrintSummary() {
	duration := time.Since(r.startTime).Round(time.Second)

	r.logger.StatusMessage("")
	r.logger.StatusMessage("---------------------------------------------")
	r.logger.StatusMessage("📊 gitstamp Session Summary")
	r.logger.StatusMessage("---------------------------------------------")
	r.logger.StatusMessage("🔁 Cycles run: %s (%s failed)", humanize.Comma(int64(r.stats.cycles)), humanize.Comma(int64(r.stats.failures)))
	r.logger.StatusMessage("📝 Files stamped: %s (%s written)", humanize.Comma(int64(r.stats.filesChanged)), humanize.Bytes(uint64(r.stats.bytesWritten)))
	r.logger.StatusMessage("✅ Commits made: %d, pushes: %d", r.stats.commits, r.stats.pushes)
	r.logger.StatusMessage("⏱️  Session duration: %s", duration)
	r.logger.StatusMessage("🌿 Target: %s/%s", r.settings.RemoteName, r.settings.RemoteBranch)

	if !r.stats.lastPush.IsZero() {
		r.logger.StatusMessage("🚀 Last push: %s", humanize.Time(r.stats.lastPush))
	}

	if last := r.stats.last; last != nil && last.Publication != nil {
		r.logger.StatusMessage("📦 Last outcome: %s", last.Publication.State)
	}

	if last := r.stats.last; last != nil && last.Stamp != nil {
		failures := last.Stamp.Failures()
		if len(failures) > 0 {
			paths := lo.Map(failures, func(res stamp.FileResult, _ int) string { return res.Path })
			r.logger.StatusMessage("⚠️  Files not stamped in the last cycle: %s", strings.Join(paths, ", "))
		}
	}

	r.logger.StatusMessage("---------------------------------------------")
	r.logger.StatusMessage("🛑 gitstamp terminated at %s", time.Now().Format("2006-01-02 15:04:05"))
}

// Stats summarises the session so far.
type Stats struct {
	Cycles       int
	Failures     int
	Commits      int
	Pushes       int
	FilesChanged int
	BytesWritten int64
}

// Stats returns the counters of the session so far.
func (r *Runner) Stats() Stats {
	return Stats{
		Cycles:       r.stats.cycles,
		Failures:     r.stats.failures,
		Commits:      r.stats.commits,
		Pushes:       r.stats.pushes,
		FilesChanged: r.stats.filesChanged,
		BytesWritten: r.stats.bytesWritten,
	}
}

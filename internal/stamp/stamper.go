package stamp

import (
	"bytes"
	"context"
	"os"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bashhack/gitstamp/internal/config"
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/logger"
	"github.com/bashhack/gitstamp/internal/scan"
)

var errInvalidUTF8 = gitstampErrors.New("content is not valid UTF-8")

// Options configures a Stamper.
type Options struct {
	EmptyFiles config.EmptyFilePolicy

	// Workers bounds the number of files stamped at once. Values below 1
	// stamp one file at a time.
	Workers int

	// OnFile, when set, is called after every file. It may be called from
	// several goroutines at once.
	OnFile func(FileResult)
}

// Stamper writes marker lines into files.
type Stamper struct {
	emptyFiles config.EmptyFilePolicy
	workers    int
	onFile     func(FileResult)
	logger     logger.Logger
}

// New creates a Stamper.
func New(opts Options, log logger.Logger) *Stamper {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	emptyFiles := opts.EmptyFiles
	if emptyFiles == "" {
		emptyFiles = config.EmptyFilesInsert
	}
	return &Stamper{
		emptyFiles: emptyFiles,
		workers:    workers,
		onFile:     opts.OnFile,
		logger:     log,
	}
}

// StampAll stamps every candidate with timestamp. Files are independent:
// a failure is recorded in the report and the others carry on. Once ctx is
// done no new file is started, files already being written are finished,
// and the partial report is returned together with the context error.
func (s *Stamper) StampAll(ctx context.Context, candidates []scan.Candidate, timestamp string) (*Report, error) {
	start := time.Now()
	results := make([]FileResult, len(candidates))
	started := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, candidate := range candidates {
		if gctx.Err() != nil {
			break
		}
		i, candidate := i, candidate
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started[i] = true
			results[i] = s.StampFile(candidate.Path, candidate.Rule, timestamp)
			if s.onFile != nil {
				s.onFile(results[i])
			}
			return nil
		})
	}
	err := g.Wait()

	report := &Report{
		Timestamp: timestamp,
		Duration:  time.Since(start),
	}
	for i := range results {
		if started[i] {
			report.Results = append(report.Results, results[i])
		}
	}

	s.logger.Info("Stamped %d of %d files in %s: %d updated, %d inserted, %d unchanged, %d skipped, %d failed",
		len(report.Results), len(candidates), report.Duration,
		report.Count(ActionUpdated), report.Count(ActionInserted), report.Count(ActionUnchanged),
		report.Count(ActionSkipped), report.Count(ActionFailed))

	if err == nil {
		err = ctx.Err()
	}
	return report, err
}

// StampFile makes the first line of the file at path the marker rendered
// from rule and timestamp. An existing marker is replaced, otherwise one is
// inserted. The file is only rewritten when its bytes change.
func (s *Stamper) StampFile(path string, rule config.CommentRule, timestamp string) FileResult {
	result := s.stampFile(path, rule, timestamp)

	switch result.Action {
	case ActionFailed:
		s.logger.Warning("Failed to stamp %s: %v", path, result.Err)
	default:
		s.logger.Info("%s: %s", path, result.Action)
	}
	return result
}

func (s *Stamper) stampFile(path string, rule config.CommentRule, timestamp string) FileResult {
	failed := func(op string, err error) FileResult {
		return FileResult{
			Path:   path,
			Action: ActionFailed,
			Err:    gitstampErrors.NewFileIOError(path, op, err),
		}
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return failed("read", err)
	}

	content, err := decode(original)
	if err != nil {
		return failed("decode", err)
	}

	marker := rule.Render(timestamp)

	var updated []byte
	action := ActionInserted
	if len(content) == 0 {
		if s.emptyFiles == config.EmptyFilesSkip {
			return FileResult{Path: path, Action: ActionSkipped}
		}
		updated = []byte(marker + "\n")
	} else {
		updated, action = restamp(content, rule, marker)
	}

	if bytes.Equal(updated, original) {
		return FileResult{Path: path, Action: ActionUnchanged}
	}

	if err := overwrite(path, updated); err != nil {
		return failed("write", err)
	}

	return FileResult{Path: path, Action: action, BytesWritten: len(updated)}
}

// decode strips a leading byte order mark and rejects content that is not
// UTF-8.
func decode(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, errInvalidUTF8
	}
	content, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// restamp replaces or inserts the marker as line 0 of content. The marker
// line takes the terminator of the current first line so CRLF and CR files
// keep their line endings.
func restamp(content []byte, rule config.CommentRule, marker string) ([]byte, Action) {
	firstLine, rest, terminator := splitFirstLine(content)

	if rule.Matches(string(firstLine)) {
		out := make([]byte, 0, len(marker)+len(terminator)+len(rest))
		out = append(out, marker...)
		out = append(out, terminator...)
		out = append(out, rest...)
		return out, ActionUpdated
	}

	if terminator == "" {
		terminator = "\n"
	}
	out := make([]byte, 0, len(marker)+len(terminator)+len(content))
	out = append(out, marker...)
	out = append(out, terminator...)
	out = append(out, content...)
	return out, ActionInserted
}

// splitFirstLine returns the first line without its terminator, everything
// after the terminator, and the terminator itself ("", "\n", "\r\n" or "\r").
func splitFirstLine(content []byte) (line, rest []byte, terminator string) {
	i := bytes.IndexAny(content, "\r\n")
	if i < 0 {
		return content, nil, ""
	}
	line = content[:i]
	switch {
	case content[i] == '\n':
		return line, content[i+1:], "\n"
	case i+1 < len(content) && content[i+1] == '\n':
		return line, content[i+2:], "\r\n"
	default:
		return line, content[i+1:], "\r"
	}
}

// overwrite replaces the contents of an existing file in place, keeping its
// mode and ownership.
func overwrite(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package git

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bashhack/gitstamp/internal/logger"
)

// UserInteractor defines an interface for interacting with the user
type UserInteractor interface {
	// PromptYesNo asks the user a yes/no question and returns their response
	PromptYesNo(question string) bool
}

// DefaultInteractor is the standard implementation of UserInteractor
// that reads from stdin and writes to stdout
type DefaultInteractor struct {
	Reader io.Reader
	Logger logger.Logger
}

// NewDefaultInteractor creates a new DefaultInteractor
func NewDefaultInteractor(logger logger.Logger) *DefaultInteractor {
	return &DefaultInteractor{
		Reader: os.Stdin,
		Logger: logger,
	}
}

// PromptYesNo asks the user a yes/no question and returns their response
func (i *DefaultInteractor) PromptYesNo(question string) bool {
	i.Logger.StatusMessage("%s (y/n): ", question)

	reader := bufio.NewReader(i.Reader)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		// On error, default to 'no'
		return false
	}

	answer = strings.TrimSpace(answer)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// NonInteractiveInteractor answers every question with a fixed value
// without prompting.
type NonInteractiveInteractor struct {
	Answer bool
}

// NewNonInteractiveInteractor creates a new NonInteractiveInteractor
func NewNonInteractiveInteractor(answer bool) *NonInteractiveInteractor {
	return &NonInteractiveInteractor{Answer: answer}
}

// PromptYesNo returns the fixed answer without prompting
func (i *NonInteractiveInteractor) PromptYesNo(question string) bool {
	return i.Answer
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ForcePushWarning is shown before the first push of a session.
const ForcePushWarning = "gitstamp force-pushes to %s/%s: commits that anyone else pushed to that branch will be overwritten and lost."

// ConfirmForcePush shows the force-push warning and asks whether to go on.
func ConfirmForcePush(interactor UserInteractor, log logger.Logger, remote, branch string) bool {
	log.WarningToUser(ForcePushWarning, remote, branch)
	return interactor.PromptYesNo("Continue and overwrite " + remote + "/" + branch + "?")
}

package git

import (
	"context"

	gogit "github.com/go-git/go-git/v5"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// IsRepository reports whether path is inside a git working tree.
// A missing repository is (false, nil); anything else that prevents
// opening it is returned as an error.
func IsRepository(path string) (bool, error) {
	_, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		return true, nil
	}
	if gitstampErrors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	return false, err
}

// BootstrapResult describes what Bootstrap had to change.
type BootstrapResult struct {
	Initialized bool
	RemoteAdded bool

	// ExistingURL is set when the remote already existed with another URL.
	// The remote is left as it is.
	ExistingURL string
}

// Bootstrap makes sure the working tree of repo is a repository with a
// remote called remoteName. A missing repository is created and a missing
// remote is added with remoteURL.
func Bootstrap(ctx context.Context, repo *Repository, remoteName, remoteURL string) (*BootstrapResult, error) {
	result := &BootstrapResult{}

	gr, err := gogit.PlainOpen(repo.Path())
	if gitstampErrors.Is(err, gogit.ErrRepositoryNotExists) {
		repo.logger.InfoToUser("Initializing git repository in %s", repo.Path())
		if err := repo.Init(ctx); err != nil {
			return result, gitstampErrors.WithStage(err, "init")
		}
		result.Initialized = true
		gr, err = gogit.PlainOpen(repo.Path())
	}
	if err != nil {
		return result, gitstampErrors.Wrapf(err, "failed to open repository %s", repo.Path())
	}

	remote, err := gr.Remote(remoteName)
	switch {
	case gitstampErrors.Is(err, gogit.ErrRemoteNotFound):
		repo.logger.InfoToUser("Adding remote %s -> %s", remoteName, remoteURL)
		if err := repo.AddRemote(ctx, remoteName, remoteURL); err != nil {
			return result, gitstampErrors.WithStage(err, "remote add")
		}
		result.RemoteAdded = true

	case err != nil:
		return result, gitstampErrors.Wrapf(err, "failed to read remote %s", remoteName)

	default:
		urls := remote.Config().URLs
		if len(urls) > 0 && urls[0] != remoteURL {
			result.ExistingURL = urls[0]
			repo.logger.WarningToUser("Remote %s points to %s, not %s; leaving it unchanged", remoteName, urls[0], remoteURL)
		}
	}

	return result, nil
}

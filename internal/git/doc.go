// Package git provides the git operations behind gitstamp's publish step.
//
// Every command goes through a CommandRunner as a program plus structured
// arguments, never through a shell, and runs as "git -C <project> ...".
// The default ExecRunner bounds each command with its own timeout and
// reports expiry as errors.ErrCommandTimeout, separately from a non-zero
// exit (errors.ErrCommandFailed).
//
// # Core Components
//
// - Repository: the git commands gitstamp needs, bound to one working tree
// - Publisher: the stage, unstage, decide, commit and push pipeline
// - Publication: the final State of one pipeline run and its Step trace
// - Bootstrap: creates the repository and remote when they are missing
// - UserInteractor: yes/no prompts for the force-push confirmation
//
// # Publish Pipeline
//
//	Start -> Staged -> NothingToCommit
//	                -> CommitPending -> Committed -> Pushed | PushFailed
//	                                 -> CommitFailed
//	      -> StageFailed
//
// Staging runs "git add --all". Each configured unstage path is then taken
// back out of the index with "git reset -q -- <path>"; a failure there is
// recorded in the trace and otherwise ignored. "git status --porcelain"
// decides whether anything is staged. The commit message is the configured
// prefix followed by the run timestamp, and the push always uses --force:
//
//	git push --force --set-upstream <remote> HEAD:refs/heads/<branch>
//
// With PushWhenClean the push also runs after NothingToCommit, so commits
// left unpushed by an earlier failure still reach the remote.
//
// # Usage
//
//	repo := git.NewRepository(projectPath, git.NewExecRunner(2*time.Minute), log)
//	pub := git.NewPublisher(repo, git.PublisherConfig{
//	    RemoteName:   "origin",
//	    RemoteBranch: "main",
//	    CommitPrefix: "Auto-commit:",
//	}, log)
//
//	publication, err := pub.Publish(ctx, "2024-02-02 10:00:00")
//	if err != nil {
//	    // publication.State is StageFailed, CommitFailed or PushFailed
//	}
//
// Context cancellation is checked between steps; a cancelled publish
// returns ctx.Err() together with the steps completed so far.
package git

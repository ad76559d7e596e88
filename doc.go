// Package gitstamp stamps source files with a "Last Updated" marker and
// publishes them.
//
// Each run walks a project, writes one timestamp into a marker comment at
// the top of every file whose extension has a comment rule, stages the
// tree, commits it when something changed, and force-pushes it to a
// remote branch. A typical use is a site served from a branch where each
// file shows when it was last regenerated.
//
// # Quick Start
//
//	# Publish the current directory to origin/main once
//	gitstamp
//
//	# Publish ./site to origin/gh-pages every 30 minutes
//	gitstamp -p ./site -b gh-pages -i 30m
//
// Given the default rules, a JavaScript file
//
//	console.log('hi');
//
// becomes
//
//	// Last Updated: 2024-02-02 10:00:00
//	console.log('hi');
//
// and later runs replace the first line instead of adding another.
//
// # Module Structure
//
//   - cmd/gitstamp: command-line interface
//   - internal/config: flags, environment, YAML file and validation
//   - internal/scan: exclusions and the project walk
//   - internal/stamp: marker insertion and replacement
//   - internal/git: command runner, repository commands, publish pipeline
//   - internal/runner: cycles, retries and the session summary
//   - internal/lock: one gitstamp per project
//   - internal/logger: debug log and terminal output
//   - internal/errors: error types and sentinels
//
// # Warning
//
// The push is always forced. Anything else pushed to the target branch is
// overwritten.
package gitstamp

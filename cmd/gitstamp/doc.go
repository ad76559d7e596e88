// Package main implements gitstamp, a "Last Updated" stamper and publisher
//
// gitstamp walks a project, writes the current time into a marker comment at
// the top of every source file it knows a comment style for, commits the
// result, and force-pushes it to a remote branch. It is meant for projects
// whose published copy has to show when each file was last regenerated,
// such as a static site deployed from a dedicated branch.
//
// # Features
//
//   - Marker lines per file extension, updated in place on later runs
//   - Directory name, directory path, file name and glob exclusions
//   - Optional use of the project's .gitignore while walking
//   - Paths that are staged and then taken out of the index again
//   - Secret files that are kept ignored and untracked
//   - A single run, or a cycle every --interval with retry limits
//   - File locking so only one gitstamp works on a project at a time
//
// # Basic Usage
//
//	gitstamp                                # stamp and publish the current directory once
//	gitstamp -p ./site -b gh-pages          # publish ./site to origin/gh-pages
//	gitstamp -i 15m                         # run every 15 minutes until interrupted
//	gitstamp --bootstrap --remote-url URL   # create the repository and remote first
//	gitstamp -r '.py=# Stamped: {}'         # replace the built-in comment rules
//
// # Force-Push
//
// Every push overwrites the remote branch. Commits pushed there by anyone
// else are lost. gitstamp prints a warning at startup and, when stdin is a
// terminal, asks before going on. --yes or --non-interactive skip the
// question.
//
// # Exit Status
//
// gitstamp exits with 1 when the configuration is invalid, another instance
// holds the lock, or a cycle fails to stage, commit or push. Nothing to
// commit, a declined confirmation, and shutdown on SIGINT, SIGTERM or
// SIGHUP all exit with 0.
//
// See the config package for every option and its environment variable.
package main

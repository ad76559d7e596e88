// Package config provides configuration handling for the gitstamp application.
//
// This package defines every setting gitstamp understands, the comment rules
// that describe marker lines, and the exclusion sets consulted while walking
// a project. Config is populated by kong from flags, environment variables
// and an optional YAML file; Finalize validates it and produces the
// immutable Settings value shared by all other packages.
//
// # Core Components
//
// - Config: flag/env/YAML bound settings as parsed by kong
// - Settings: validated configuration handed to the rest of the program
// - CommentRule and RuleSet: marker templates split around their placeholder
// - ExclusionSet: directory names, directory paths and file names to skip
//
// # Configuration Sources
//
// Command-line flags always take priority. Unset flags fall back to the
// YAML file given with --config (or found at ./.gitstamp.yaml or
// ~/.config/gitstamp/config.yaml), then to GITSTAMP_* environment variables,
// then to the defaults.
//
// # Environment Variables
//
//	GITSTAMP_PROJECT_PATH              Project to stamp (default: current directory)
//	GITSTAMP_REMOTE_NAME               Remote to push to (default: origin)
//	GITSTAMP_REMOTE_URL                Remote URL used by --bootstrap
//	GITSTAMP_REMOTE_BRANCH             Remote branch to overwrite (default: main)
//	GITSTAMP_EXCLUDED_DIRECTORY_NAMES  Comma separated directory names
//	GITSTAMP_EXCLUDED_DIRECTORY_PATHS  Comma separated relative directory paths
//	GITSTAMP_EXCLUDED_FILE_NAMES       Comma separated file names
//	GITSTAMP_INTERVAL                  Time between cycles (default: 0s, run once)
//	GITSTAMP_MAX_RETRIES               Consecutive identical errors tolerated (default: 3)
//	GITSTAMP_NON_INTERACTIVE           Never prompt
//	GITSTAMP_DEBUG                     Enable debug logging
//	GITSTAMP_LOG_FILE                  Debug log path
//
// # YAML File
//
// Keys are flag names written with dashes or underscores. A site that
// serves large model files and keeps its upload script private might use:
//
//	remote_branch_name: gh-pages
//	excluded_directory_paths: [static/models, public/models]
//	excluded_file_names: [AutoUpload.py]
//	unstage_paths: [static/models]
//	comment_rules:
//	  .py: "# Last Updated: {}"
//	  .css: "/* Last Updated: {} */"
//	empty_files: skip
//
// # Comment Rules
//
// A template must contain the {} placeholder exactly once and fit on one
// line. The text before and after the placeholder is what identifies an
// existing marker, so a file stamped with any earlier timestamp is updated
// in place instead of receiving a second marker.
package config

// Package stamp maintains the "Last Updated" marker line at the top of
// source files.
//
// The marker for a file is the comment rule of its extension rendered with
// the run timestamp. A first line that matches the rule's prefix and suffix
// is treated as an earlier marker and replaced; any other first line is
// pushed down by one and the marker inserted above it. Stamping the same
// file twice with the same timestamp leaves it byte-identical, and a file
// whose bytes would not change is not written at all.
//
// A leading UTF-8 byte order mark is dropped when the file is rewritten.
// Files that are not valid UTF-8 are reported as failures and left
// untouched. Zero-byte files either receive a single marker line or are
// skipped, depending on config.EmptyFilePolicy.
//
// Stamper.StampAll processes files in parallel with a bounded errgroup.
// Every file belongs to exactly one worker, and a failure on one file never
// stops the others; all results are collected in a Report.
package stamp

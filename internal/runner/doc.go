// Package runner drives gitstamp cycles.
//
// A cycle walks the project with a scan.Filter, stamps every eligible file
// with the cycle timestamp, keeps secret files out of the index, and hands
// the working tree to the git publish pipeline. Run repeats cycles on an
// interval and stops once the same error has been seen more than
// MaxRetries times in a row.
package runner

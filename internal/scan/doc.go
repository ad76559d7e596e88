// Package scan walks a project tree and selects the files to stamp.
//
// Filter answers two questions: should a directory be entered, and is a
// file eligible. Directory decisions are made before descent so excluded
// subtrees such as node_modules are never read. Walk drives
// filepath.WalkDir with a Filter and collects the candidates.
package scan

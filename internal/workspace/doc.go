// Package workspace manages scratch directories for upstream clones. Each
// Manager owns one directory below a base path and removes it on Cleanup.
package workspace

// Package git wraps the go-git operations used to inspect a snap's
// packaging repository: cloning it, reading the HEAD commit and describing
// HEAD relative to the nearest tag.
package git

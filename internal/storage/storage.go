// Package storage declares the sentinel errors shared by every backing
// store adapter so services can translate them into the API error taxonomy
// without knowing which backend is wired.
package storage

import "errors"

// ErrNotFound is returned by any adapter when the requested record does not
// exist.
var ErrNotFound = errors.New("record not found")

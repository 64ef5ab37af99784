package storage

import "errors"

// ErrBlobNotFound is returned when a storage key does not resolve.
var ErrBlobNotFound = errors.New("blob not found")

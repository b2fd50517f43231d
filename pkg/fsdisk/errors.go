// file: pkg/fsdisk/errors.go

package fsdisk

import "errors"

var (
	ErrNotFound      = errors.New("fsdisk: file or directory not found")
	ErrFileExists    = errors.New("fsdisk: file already exists")
	ErrDirectoryFull = errors.New("fsdisk: directory is full")
	ErrDiskFull      = errors.New("fsdisk: not enough free sectors")
	ErrNotADirectory = errors.New("fsdisk: not a directory")
	ErrIsADirectory  = errors.New("fsdisk: is a directory")
	ErrNameTooLong   = errors.New("fsdisk: name exceeds maximum length")
	ErrInvalidOffset = errors.New("fsdisk: offset out of range")
	ErrBadDescriptor = errors.New("fsdisk: invalid open file descriptor")
)

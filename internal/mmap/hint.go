package mmap

import "errors"

// ReadHint tells the kernel how a payload mapping will be consumed.
type ReadHint uint8

const (
	ReadAnyOrder ReadHint = iota
	// ReadFrontToBack suits a codec decoding the whole payload once.
	ReadFrontToBack
	ReadScattered
	// ReadSoon asks for the pages to be faulted in ahead of the decode.
	ReadSoon
)

// ErrClosed is returned by ReadAt after Close.
var ErrClosed = errors.New("mmap: read after close")

// ErrInvalidSize means the payload file is larger than the address space.
var ErrInvalidSize = errors.New("mmap: payload size out of range")

var ErrInvalidOffset = errors.New("mmap: negative read offset")

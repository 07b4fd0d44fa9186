//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func mapReadOnly(f *os.File, size int) ([]byte, func([]byte) error, error) {
	section, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	defer windows.CloseHandle(section)

	base, err := windows.MapViewOfFile(section, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, nil, err
	}
	unmap := func([]byte) error { return windows.UnmapViewOfFile(base) }
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), size), unmap, nil
}

// hint is a no-op: Windows has no madvise equivalent for file views.
func hint([]byte, ReadHint) error { return nil }

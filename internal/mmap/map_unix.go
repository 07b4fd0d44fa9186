//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var madvice = map[ReadHint]int{
	ReadAnyOrder:    unix.MADV_NORMAL,
	ReadFrontToBack: unix.MADV_SEQUENTIAL,
	ReadScattered:   unix.MADV_RANDOM,
	ReadSoon:        unix.MADV_WILLNEED,
}

func mapReadOnly(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

// hint applies h to data. EINVAL (an unaligned or empty range) is ignored.
func hint(data []byte, h ReadHint) error {
	advice, ok := madvice[h]
	if !ok || len(data) == 0 {
		return nil
	}
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}

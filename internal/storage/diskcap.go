package storage

import (
	"syscall"

	"github.com/scidb-go/arraydb/internal/arrerrors"
)

// TargetDirectoryCapacity returns the total and free byte counts of the
// filesystem backing dir. No other component calls it; the external sort
// and the persistent chunk store are not sized from it.
//
// Ported from the teacher's util/sys/storage capacity probe (originally
// exercised only by a throwaway test against "."): no pack library wraps
// statfs, and the syscall is the only portable primitive for this, so it
// stays on the standard library by necessity rather than preference.
func TargetDirectoryCapacity(dir string) (totalBytes, freeBytes uint64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, 0, arrerrors.Wrap(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, err)
	}
	totalBytes = stat.Blocks * uint64(stat.Bsize)
	freeBytes = stat.Bavail * uint64(stat.Bsize)
	return totalBytes, freeBytes, nil
}

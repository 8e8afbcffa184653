package memory

import "fmt"

// Tracker already models a generic byte counter tree; DiskTracker reuses
// the exact same shape for disk-resident bytes (spilled runs, persistent
// chunk payloads) — mirrors the teacher's separate util/disk.Tracker type
// attached alongside a RowContainer's memTracker in row_container.go
// (c.diskTracker = disk.NewTracker(...)).
type DiskTracker = Tracker

// NewDiskTracker is the disk-flavoured constructor, kept distinct from
// NewTracker purely for call-site clarity (GetDiskTracker()/diskTracker
// fields read far more naturally with their own constructor name).
func NewDiskTracker(label fmt.Stringer, bytesLimit int64) *DiskTracker {
	return NewTracker(label, bytesLimit)
}

package sg

import (
	"context"
	"time"
)

// PullSGArrayBlocking wraps a non-blocking PullSGArray core with a
// cooperative retry loop (§4.4): attempt one chunk per still-active
// attribute, move past any that return RetryException, and block briefly
// once no attribute can make progress before trying again.
type PullSGArrayBlocking struct {
	arrays map[int]*PullSGArray // attrID -> core
	active map[int]bool
	pollInterval time.Duration
}

// NewPullSGArrayBlocking wraps the given per-attribute cores.
func NewPullSGArrayBlocking(arrays map[int]*PullSGArray) *PullSGArrayBlocking {
	active := make(map[int]bool, len(arrays))
	for attr := range arrays {
		active[attr] = true
	}
	return &PullSGArrayBlocking{arrays: arrays, active: active, pollInterval: time.Millisecond}
}

// ChunkHandler is invoked once per successfully-pulled chunk for an attribute.
type ChunkHandler func(attrID int, c *Chunk) error

// PullAttributes drives attrs (or every active attribute if attrs is nil)
// to completion, calling fn for each pulled chunk, cooperatively yielding
// on RetryException instead of busy-spinning the caller's goroutine. For
// SINGLE_PASS inputs the caller must pass the full attribute set so every
// attribute advances together in horizontal-iteration order (§4.4).
func (b *PullSGArrayBlocking) PullAttributes(ctx context.Context, attrs []int, fn ChunkHandler) error {
	if attrs == nil {
		for attr := range b.arrays {
			attrs = append(attrs, attr)
		}
	}
	for {
		progressed := false
		allDone := true
		for _, attr := range attrs {
			if !b.active[attr] {
				continue
			}
			allDone = false
			core := b.arrays[attr]
			ok, err := core.Next()
			if err != nil {
				if IsRetry(err) {
					continue
				}
				return err
			}
			if !ok {
				b.active[attr] = false
				continue
			}
			progressed = true
			c, err := core.GetChunk()
			if err != nil {
				return err
			}
			if err := fn(attr, c); err != nil {
				return err
			}
		}
		if allDone {
			return nil
		}
		if !progressed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.pollInterval):
			}
		}
	}
}

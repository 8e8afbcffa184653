package sysmem

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/mem"
)

// Total returns the total amount of RAM available to this process, reading
// cgroup limits when running in a container and /proc meminfo otherwise.
// Ported from util/memory/meminfo.go's MemTotal/MemTotalCGroup split.
var Total func() (uint64, error)

// Used returns the amount of RAM currently used, same container/host split.
var Used func() (uint64, error)

type memCache struct {
	mu         sync.RWMutex
	value      uint64
	updateTime time.Time
}

func (c *memCache) get() (uint64, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.updateTime
}

func (c *memCache) set(v uint64, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value, c.updateTime = v, t
}

// limitCache expires every 60s, usageCache every 500ms, matching the
// teacher's cache lifetimes for limit vs. instantaneous usage.
var limitCache = &memCache{}
var usageCache = &memCache{}

func totalHost() (uint64, error) {
	if v, t := limitCache.get(); time.Since(t) < 60*time.Second {
		return v, nil
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	limitCache.set(v.Total, time.Now())
	return v.Total, nil
}

func usedHost() (uint64, error) {
	if v, t := usageCache.get(); time.Since(t) < 500*time.Millisecond {
		return v, nil
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	usageCache.set(v.Used, time.Now())
	return v.Used, nil
}

func totalCGroup() (uint64, error) {
	if v, t := limitCache.get(); time.Since(t) < 60*time.Second {
		return v, nil
	}
	v := cgroupInstance.memoryLimitInBytes()
	limitCache.set(v, time.Now())
	return v, nil
}

func usedCGroup() (uint64, error) {
	if v, t := usageCache.get(); time.Since(t) < 500*time.Millisecond {
		return v, nil
	}
	v := cgroupInstance.memoryUsageInBytes()
	usageCache.set(v, time.Now())
	return v, nil
}

func init() {
	if InContainer() {
		Total = totalCGroup
		Used = usedCGroup
	} else {
		Total = totalHost
		Used = usedHost
	}
}

// DefaultSortMemLimit picks a sort memLimit (§4.6) as a fraction of host
// memory, bounded to a sane range. config.Default does not call it; it
// uses a fixed MemLimit.
func DefaultSortMemLimit() int64 {
	total, err := Total()
	if err != nil || total == 0 {
		return 256 << 20
	}
	limit := int64(total / 16)
	const floor = 64 << 20
	const ceil = 2 << 30
	if limit < floor {
		return floor
	}
	if limit > ceil {
		return ceil
	}
	return limit
}

package vm

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Profiler tracks how often each dispatch table slot is dispatched to.
// A single profiler may be shared by machines running on different
// goroutines; all counters are updated atomically.

// SlotProfile holds profiling data for a single table slot.
type SlotProfile struct {
	IP            int
	DispatchCount uint64 // Atomic counter for dispatches
	IsHot         bool   // True once HotThreshold was reached
}

// Profiler manages dispatch profiles for table slots.
type Profiler struct {
	// Profile storage (thread-safe)
	slots sync.Map // int -> *SlotProfile

	// HotThreshold is the dispatch count at which a slot becomes hot.
	// Zero disables hot detection.
	HotThreshold uint64

	// OnHot is called once per slot, on the dispatch that made it hot.
	OnHot func(profile *SlotProfile)

	// Statistics
	totalDispatches uint64
	hotSlotCount    uint64
}

// NewProfiler creates a profiler with the default threshold.
func NewProfiler() *Profiler {
	return &Profiler{
		HotThreshold: 1000,
	}
}

// RecordDispatch increments the dispatch count for the slot at ip.
// Returns true if this dispatch caused the slot to become hot.
func (p *Profiler) RecordDispatch(ip int) bool {
	atomic.AddUint64(&p.totalDispatches, 1)

	val, ok := p.slots.Load(ip)
	if !ok {
		val, _ = p.slots.LoadOrStore(ip, &SlotProfile{IP: ip})
	}
	profile := val.(*SlotProfile)

	count := atomic.AddUint64(&profile.DispatchCount, 1)

	// Exactly one dispatch observes count == threshold
	if p.HotThreshold != 0 && count == p.HotThreshold {
		profile.IsHot = true
		atomic.AddUint64(&p.hotSlotCount, 1)

		if p.OnHot != nil {
			p.OnHot(profile)
		}
		return true
	}

	return false
}

// SlotProfile returns the profile for the slot at ip, or nil if the slot
// was never dispatched to.
func (p *Profiler) SlotProfile(ip int) *SlotProfile {
	if val, ok := p.slots.Load(ip); ok {
		return val.(*SlotProfile)
	}
	return nil
}

// DispatchCount returns the number of dispatches recorded for ip.
func (p *Profiler) DispatchCount(ip int) uint64 {
	if profile := p.SlotProfile(ip); profile != nil {
		return atomic.LoadUint64(&profile.DispatchCount)
	}
	return 0
}

// IsSlotHot returns true if the slot has reached the hot threshold.
func (p *Profiler) IsSlotHot(ip int) bool {
	return p.DispatchCount(ip) >= p.HotThreshold && p.HotThreshold != 0
}

// ProfilerStats holds aggregate profiling statistics.
type ProfilerStats struct {
	TotalSlots      int    // Number of distinct slots dispatched to
	HotSlots        int    // Number of hot slots
	TotalDispatches uint64 // Dispatches across all slots
}

// Stats returns aggregate profiling statistics.
func (p *Profiler) Stats() ProfilerStats {
	var stats ProfilerStats
	p.slots.Range(func(key, value interface{}) bool {
		stats.TotalSlots++
		return true
	})
	stats.HotSlots = int(atomic.LoadUint64(&p.hotSlotCount))
	stats.TotalDispatches = atomic.LoadUint64(&p.totalDispatches)
	return stats
}

// HotSlots returns the instruction pointers of all hot slots in ascending order.
func (p *Profiler) HotSlots() []int {
	var hot []int
	p.slots.Range(func(key, value interface{}) bool {
		if p.IsSlotHot(key.(int)) {
			hot = append(hot, key.(int))
		}
		return true
	})
	sort.Ints(hot)
	return hot
}

// Reset clears all profiling data.
func (p *Profiler) Reset() {
	p.slots.Range(func(key, value interface{}) bool {
		p.slots.Delete(key)
		return true
	})
	atomic.StoreUint64(&p.totalDispatches, 0)
	atomic.StoreUint64(&p.hotSlotCount, 0)
}

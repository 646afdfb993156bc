// Package fio implements the throttled, optionally-mapped file access
// of spec §5 (component C13): a reader/writer pair that can cap its
// own iops and byte rate, plus whole-file mmap with optional mlock.
package fio

import "time"

// ThrottleState tracks a rolling I/O budget and sleeps the calling
// goroutine once it's spent, the same bookkeeping the source's
// io_stats.cpp/throttle_state.h pair keeps per scan thread.
type ThrottleState struct {
	maxIOPS      int
	maxBytesPS   int
	opsThisTick  int
	bytesThisTick int
	tickStart    time.Time
	now          func() time.Time
	sleep        func(time.Duration)
}

// NewThrottleState builds a throttle. maxIOPS/maxBytesPS of 0 disables
// that axis of throttling.
func NewThrottleState(maxIOPS, maxBytesPS int) *ThrottleState {
	return &ThrottleState{
		maxIOPS:    maxIOPS,
		maxBytesPS: maxBytesPS,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Account records one I/O operation of n bytes, sleeping out the
// remainder of the current one-second tick if either budget axis has
// been exceeded (spec §5, "throttled reader/writer").
func (t *ThrottleState) Account(n int) {
	if t.maxIOPS == 0 && t.maxBytesPS == 0 {
		return
	}
	now := t.now()
	if t.tickStart.IsZero() || now.Sub(t.tickStart) >= time.Second {
		t.tickStart = now
		t.opsThisTick = 0
		t.bytesThisTick = 0
	}
	t.opsThisTick++
	t.bytesThisTick += n

	overOps := t.maxIOPS > 0 && t.opsThisTick > t.maxIOPS
	overBytes := t.maxBytesPS > 0 && t.bytesThisTick > t.maxBytesPS
	if !overOps && !overBytes {
		return
	}
	remaining := time.Second - now.Sub(t.tickStart)
	if remaining > 0 {
		t.sleep(remaining)
	}
	t.tickStart = t.now()
	t.opsThisTick = 0
	t.bytesThisTick = 0
}

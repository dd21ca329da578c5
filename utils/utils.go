// Package utils holds small cross-cutting helpers shared by the roles,
// the network transport and the harness: warn-level error logging, a
// toggle for verbose per-message tracing, and a binary backoff engine
// used when a wire connection needs to be retried.
package utils

import (
	"math/rand"
	"time"

	"github.com/go-kit/kit/log"
)

// CheckWarn logs e at warn level and returns true if e is non-nil, so
// callers can write `if utils.CheckWarn(err, logger) { return }`.
func CheckWarn(e error, logger log.Logger) bool {
	if e != nil {
		logger.Log("msg", "Warning", "error", e)
		return true
	}
	return false
}

// DebugLogFunc gates verbose tracing without a branch at every call
// site. Swap DebugLog for a real logger call (or leave it a no-op, the
// default) depending on build configuration.
type DebugLogFunc func(log.Logger, ...interface{})

var DebugLog = DebugLogFunc(func(log.Logger, ...interface{}) {})

// EmptyStruct is the canonical zero-size set-membership value.
type EmptyStruct struct{}

var EmptyStructVal = EmptyStruct{}

func (es EmptyStruct) String() string { return "" }

// BinaryBackoffEngine is a jittered exponential backoff used by the wire
// transport when a PUSH connection to a peer fails and needs retrying.
type BinaryBackoffEngine struct {
	rng    *rand.Rand
	min    time.Duration
	max    time.Duration
	period time.Duration
	Cur    time.Duration
}

func NewBinaryBackoffEngine(rng *rand.Rand, min, max time.Duration) *BinaryBackoffEngine {
	if min <= 0 {
		return nil
	}
	return &BinaryBackoffEngine{
		rng:    rng,
		min:    min,
		max:    max,
		period: min,
		Cur:    0,
	}
}

func (bbe *BinaryBackoffEngine) Advance() time.Duration {
	oldCur := bbe.Cur
	bbe.period *= 2
	if bbe.period > bbe.max {
		bbe.period = bbe.max
	}
	bbe.Cur = time.Duration(bbe.rng.Intn(int(bbe.period)))
	return oldCur
}

func (bbe *BinaryBackoffEngine) After(fun func()) {
	if duration := bbe.Cur; duration == 0 {
		fun()
	} else {
		time.AfterFunc(duration, fun)
	}
}

func (bbe *BinaryBackoffEngine) Shrink(roundToZero time.Duration) {
	bbe.period /= 2
	if bbe.period < bbe.min {
		bbe.period = bbe.min
	}
	bbe.Cur = time.Duration(bbe.rng.Intn(int(bbe.period)))
	if bbe.Cur <= roundToZero {
		bbe.Cur = 0
	}
}

package metrics

import (
	"sync/atomic"
	"time"
)

// ID identifies one counter slot.
type ID uint16

const (
	SignInSuccess ID = iota
	SignInFailure
	TwoFactorRequired
	TwoFactorSuccess
	TwoFactorFailure
	TokenIssued
	StampValidated
	StampRejected
	SignInLatency
	idCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type histogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each slot on its own cache line so concurrent
// increments of different IDs never share a line.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which recording paths are active.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Recorder holds lock-free counters and the sign-in latency histogram.
type Recorder struct {
	enabled       bool
	enableLatency bool
	counters      [idCount]paddedCounter
	histograms    [idCount]histogram
}

// Snapshot is a point-in-time copy of all counters and histograms.
type Snapshot struct {
	Counters   map[ID]uint64
	Histograms map[ID][]uint64
}

func NewRecorder(cfg Config) *Recorder {
	return &Recorder{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.enabled
}

func (r *Recorder) LatencyEnabled() bool {
	return r != nil && r.enableLatency
}

// Inc is a no-op on a nil or disabled Recorder.
func (r *Recorder) Inc(id ID) {
	if r == nil || !r.enabled || id >= idCount {
		return
	}
	atomic.AddUint64(&r.counters[id].value, 1)
}

// Observe records a sign-in duration into the latency histogram.
func (r *Recorder) Observe(id ID, d time.Duration) {
	if r == nil || !r.enabled || !r.enableLatency || id >= idCount {
		return
	}
	if id != SignInLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&r.histograms[id].buckets[b], 1)
}

func (r *Recorder) Value(id ID) uint64 {
	if r == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&r.counters[id].value)
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil || !r.enabled {
		return Snapshot{
			Counters:   map[ID]uint64{},
			Histograms: map[ID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[ID]uint64, int(idCount)),
		Histograms: make(map[ID][]uint64, 1),
	}

	for id := ID(0); id < idCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&r.counters[id].value)
	}

	if r.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&r.histograms[SignInLatency].buckets[i])
		}
		s.Histograms[SignInLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

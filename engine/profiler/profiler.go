// Package profiler logs frame rate and memory statistics at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"go.uber.org/zap"
)

const bytesPerMB = 1024 * 1024

// Stats is one reporting interval's measurements.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64 // MB allocated per second over the interval
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64 // longest GC pause since the previous report
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// It is not safe for concurrent use; call Tick from the render loop only.
type Profiler struct {
	log *zap.Logger
	now func() time.Time

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a new Profiler reporting once per second through the "profiler" logger.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		log:            logger.Named("profiler"),
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick should be called once per frame. When the update interval has elapsed it samples the runtime
// memory statistics and logs FPS, heap usage, allocation rate, GC count and pause times.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / bytesPerMB,
		SysMB:       float64(p.memStats.Sys) / bytesPerMB,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / bytesPerMB / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.log.Info("frame stats",
		zap.Float64("fps", s.FPS),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb_s", s.AllocRateMB),
		zap.Uint32("gc", s.GCCount),
		zap.Uint64("gc_last_pause_us", s.LastPauseUs),
		zap.Uint64("gc_max_pause_us", s.MaxPauseUs),
		zap.Float64("sys_mb", s.SysMB),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	return true
}

// Last returns the statistics of the most recent report.
func (p *Profiler) Last() Stats {
	return p.last
}

package metrics

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Sample is one snapshot of memory and CPU usage
type Sample struct {
	ProcessRSSMB      float64
	ProcessCPUPercent float64 // per core, can exceed 100 on multi-core
	SystemMemPercent  float64
	Timestamp         time.Time
}

// Fields returns the sample as zap fields
func (s *Sample) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("rss_mb", round1(s.ProcessRSSMB)),
		zap.Float64("process_cpu_pct", round1(s.ProcessCPUPercent)),
		zap.Float64("system_mem_pct", round1(s.SystemMemPercent)),
	}
}

// Collector samples process metrics and logs them periodically
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	mu sync.Mutex // serialises sampling; proc keeps CPU state between calls
}

// NewCollector creates a collector logging every interval
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// Start samples until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Log("System metrics")
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.Log("System metrics")
		}
	}
}

// Log takes a sample now and logs it under msg with extra fields first
func (c *Collector) Log(msg string, fields ...zap.Field) *Sample {
	s := c.Collect()
	c.logger.Info(msg, append(fields, s.Fields()...)...)
	return s
}

// Collect takes a sample. Values that cannot be read stay zero.
func (c *Collector) Collect() *Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Sample{Timestamp: time.Now()}

	if c.proc != nil {
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSSMB = float64(info.RSS) / (1024 * 1024)
		}
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		s.SystemMemPercent = vmem.UsedPercent
	}
	return s
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// Package sysmon polls advisory host CPU and RAM usage for the HUD. The
// readings inform display only; nothing in the turn pipeline depends on
// them.
package sysmon

import (
	"context"
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is one advisory reading.
type Stats struct {
	CPUPercent float64
	RAMPercent float64
}

// Reader produces one Stats sample.
type Reader func(ctx context.Context) (Stats, error)

// HostReader samples the real host via gopsutil.
func HostReader(ctx context.Context) (Stats, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return Stats{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{RAMPercent: vm.UsedPercent}
	if len(cpuPercents) > 0 {
		s.CPUPercent = cpuPercents[0]
	}
	return s, nil
}

// Poller ticks at a fixed interval and hands each sample to a sink.
type Poller struct {
	interval time.Duration
	read     Reader
	sink     func(Stats)
}

// NewPoller builds a poller. A nil read uses HostReader.
func NewPoller(interval time.Duration, read Reader, sink func(Stats)) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if read == nil {
		read = HostReader
	}
	return &Poller{interval: interval, read: read, sink: sink}
}

// Start runs the polling loop until ctx is canceled. Read failures are
// logged and the tick skipped; they are never fatal.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats, err := p.read(ctx)
				if err != nil {
					log.Printf("system stats read failed: %v", err)
					continue
				}
				p.sink(stats)
			}
		}
	}()
}

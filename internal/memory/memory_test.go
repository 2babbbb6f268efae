package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testMonitor(limit int64, heap *uint64) *Monitor {
	m := NewMonitor(Config{
		MemoryLimitBytes:  limit,
		HighWaterMark:     0.5,
		CriticalWaterMark: 0.8,
		CheckInterval:     time.Hour,
	})
	m.readHeap = func() uint64 { return *heap }
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("HighWaterMark %v should be below CriticalWaterMark %v", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval != 5*time.Second {
		t.Errorf("Expected CheckInterval to be 5s, got %v", cfg.CheckInterval)
	}
}

func TestMonitorPausesAndResumes(t *testing.T) {
	heap := uint64(100)
	m := testMonitor(1000, &heap)

	m.check()
	if m.IsPaused() {
		t.Fatal("Expected monitor to start unpaused")
	}
	if got := m.Usage(); got != 0.1 {
		t.Errorf("Usage = %v, want 0.1", got)
	}

	heap = 900
	m.check()
	if !m.IsPaused() {
		t.Fatal("Expected pause above the critical mark")
	}

	released := make(chan error, 1)
	go func() { released <- m.Wait(context.Background()) }()

	// Between the marks the pause holds.
	heap = 600
	m.check()
	select {
	case <-released:
		t.Fatal("Wait returned while still above the high water mark")
	case <-time.After(20 * time.Millisecond):
	}

	heap = 100
	m.check()
	select {
	case err := <-released:
		if err != nil {
			t.Errorf("Wait returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after recovery")
	}
	if m.IsPaused() {
		t.Error("Expected monitor to resume")
	}
}

func TestMonitorWaitHonoursContext(t *testing.T) {
	heap := uint64(950)
	m := testMonitor(1000, &heap)
	m.check()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	heap := uint64(950)
	m := testMonitor(1000, &heap)
	m.check()
	m.Start()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	m.Stop()
	m.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not release the waiter")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	m := NewMonitor(Config{CheckInterval: time.Millisecond})
	m.limit = 0
	m.Start()
	defer m.Stop()

	if m.Usage() != 0 {
		t.Errorf("Expected zero usage without a limit, got %v", m.Usage())
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait returned %v", err)
	}
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		current   int64
		wantSrc   string
		wantLimit int64
		wantSet   bool
	}{
		{"nothing set", nil, 0, "none", 0, false},
		{"GOMEMLIMIT reported", map[string]string{"GOMEMLIMIT": "512MiB"}, 512 << 20, "GOMEMLIMIT", 512 << 20, false},
		{"MEMORY_LIMIT default ratio", map[string]string{"MEMORY_LIMIT": "1000"}, 0, "MEMORY_LIMIT", 800, true},
		{"MEMORY_LIMIT custom ratio", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "0.5"}, 0, "MEMORY_LIMIT", 500, true},
		{"ratio out of range", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "1.5"}, 0, "MEMORY_LIMIT", 800, true},
		{"ratio unparsable", map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "most"}, 0, "MEMORY_LIMIT", 800, true},
		{"invalid limit", map[string]string{"MEMORY_LIMIT": "lots"}, 0, "none", 0, false},
		{"negative limit", map[string]string{"MEMORY_LIMIT": "-5"}, 0, "none", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set int64 = -1
			getenv := func(k string) string { return tt.env[k] }
			setLimit := func(v int64) int64 {
				if v < 0 {
					return tt.current
				}
				set = v
				return tt.current
			}

			l := configure(getenv, setLimit)
			if l.Source != tt.wantSrc {
				t.Errorf("Source = %q, want %q", l.Source, tt.wantSrc)
			}
			if l.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", l.GoMemLimit, tt.wantLimit)
			}
			if (set >= 0) != tt.wantSet {
				t.Errorf("limit applied = %v, want %v", set >= 0, tt.wantSet)
			}
			if l.Configured() != (tt.wantLimit > 0) {
				t.Errorf("Configured = %v", l.Configured())
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

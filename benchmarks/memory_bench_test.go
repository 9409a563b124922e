package benchmarks

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/comalice/statekernel/internal/core"
	"github.com/comalice/statekernel/internal/expr"
	"github.com/comalice/statekernel/internal/primitives"
)

func bytesPerMachine(b *testing.B, cfg primitives.MachineConfig, n int, opts ...core.Option) uint64 {
	b.Helper()
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	machines := make([]*core.Machine, n)
	for i := range machines {
		machines[i] = newMachine(b, cfg, opts...)
	}
	runtime.ReadMemStats(&after)
	runtime.KeepAlive(machines)
	return (after.TotalAlloc - before.TotalAlloc) / uint64(n)
}

func BenchmarkMemoryFlat(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("states=%d", n), func(b *testing.B) {
			cfg := GenFlatConfig(n)
			var per uint64
			for b.Loop() {
				per = bytesPerMachine(b, cfg, 100)
			}
			b.ReportMetric(float64(per)/1024, "KB/machine")
		})
	}
}

// BenchmarkMemorySharedCache shows the saving from compiling expressions once
// per config.
func BenchmarkMemorySharedCache(b *testing.B) {
	cfg := GenGuardedConfig(64)
	cache := expr.NewCache()
	var per uint64
	for b.Loop() {
		per = bytesPerMachine(b, cfg, 100, core.WithExprCache(cache))
	}
	b.ReportMetric(float64(per)/1024, "KB/machine")
}

func BenchmarkSnapshot(b *testing.B) {
	m := newMachine(b, GenFlatConfig(100))
	b.ReportAllocs()
	for b.Loop() {
		_ = m.Snapshot()
	}
}

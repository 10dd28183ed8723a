package vm

import "testing"

// =============================================================================
// Dispatch overhead
// =============================================================================

// BenchmarkRunTrampoline measures the cost of one trampoline dispatch.
func BenchmarkRunTrampoline(b *testing.B) {
	m := NewMachine(101)
	loadLoopProgram(m, 100, b.N/101, nil)

	b.ResetTimer()
	if err := m.Run(); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkRunNested measures the cost of one nested dispatch. The chain
// restarts whenever it would exceed the default depth limit.
func BenchmarkRunNested(b *testing.B) {
	const size = 100
	const loops = DefaultMaxDepth/(size+1) - 1

	b.ResetTimer()
	for done := 0; done < b.N; done += (size + 1) * (loops + 1) {
		b.StopTimer()
		m := NewMachine(size + 1)
		loadLoopProgram(m, size, loops, nil)
		b.StartTimer()
		if err := m.RunNested(0); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRunProfiled measures dispatch with a profiler attached.
func BenchmarkRunProfiled(b *testing.B) {
	m := NewMachine(101)
	m.SetProfiler(NewProfiler())
	loadLoopProgram(m, 100, b.N/101, nil)

	b.ResetTimer()
	if err := m.Run(); err != nil {
		b.Fatal(err)
	}
}

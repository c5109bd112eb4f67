package ports

// MemoryReading is a best-effort snapshot of the process's resident memory.
type MemoryReading struct {
	ResidentBytes uint64
}

// MemoryProbe is an optional capability. Probe returns ok=false on platforms
// without memory introspection; callers must then skip the pressure check.
// Absence only changes eviction aggressiveness, never selection correctness.
type MemoryProbe interface {
	Probe() (MemoryReading, bool)
}

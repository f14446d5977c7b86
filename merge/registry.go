package merge

// SampleRegistry holds the full set of sample names known to a dataset. It is
// populated once from the sample enumeration query (or local GVCF headers)
// before any aggregation begins and is read-only thereafter, so it may be
// shared across merge workers without locking.
type SampleRegistry struct {
	names  []string
	lookup map[string]int
}

// NewSampleRegistry builds a registry from the enumerated sample names,
// preserving first-seen order and dropping duplicates. That fixed order is
// what makes synthesized-genotype ordering deterministic.
func NewSampleRegistry(names []string) *SampleRegistry {
	r := &SampleRegistry{
		names:  make([]string, 0, len(names)),
		lookup: make(map[string]int, len(names)),
	}

	for _, name := range names {
		if _, exists := r.lookup[name]; exists {
			continue
		}
		r.lookup[name] = len(r.names)
		r.names = append(r.names, name)
	}

	return r
}

func (r *SampleRegistry) Has(name string) bool {
	_, ok := r.lookup[name]
	return ok
}

func (r *SampleRegistry) Len() int {
	return len(r.names)
}

// Names returns the registered sample names in registration order. Callers
// must not modify the returned slice.
func (r *SampleRegistry) Names() []string {
	return r.names
}

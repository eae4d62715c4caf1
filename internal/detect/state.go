package detect

// State caches the last accepted region and counts consecutive fast-path
// misses. One instance per monitored target, owned by its Locator; never
// shared.
type State struct {
	region Region
	cached bool
	misses int
}

// Cached returns the cached region, if any.
func (s *State) Cached() (Region, bool) {
	return s.region, s.cached
}

// Misses returns the current consecutive-miss count.
func (s *State) Misses() int { return s.misses }

// hit stores a fresh region and resets the miss counter.
func (s *State) hit(r Region) {
	s.region = r
	s.cached = true
	s.misses = 0
}

// miss increments the counter; once it exceeds maxMisses the cache is
// dropped so the next cycle runs a full search. Returns true on the tick
// that cleared it.
func (s *State) miss(maxMisses int) bool {
	if !s.cached {
		return false
	}
	s.misses++
	if s.misses > maxMisses {
		s.Clear()
		return true
	}
	return false
}

// Clear drops the cached region and resets the counter.
func (s *State) Clear() {
	s.region = Region{}
	s.cached = false
	s.misses = 0
}

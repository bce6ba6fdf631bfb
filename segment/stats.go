package segment

import "github.com/joshuapare/slabshm/internal/format"

// Stats is a snapshot of the advisory counters kept in the header. They are
// shared by every attached process.
type Stats struct {
	CellsTaken uint64 `json:"cells_taken"`
	CellsFree  uint64 `json:"cells_free"`
	AllocCalls uint64 `json:"alloc_calls"`
	FreeCalls  uint64 `json:"free_calls"`
	AllocFails uint64 `json:"alloc_fails"`
	FreeFails  uint64 `json:"free_fails"`
}

// Stats reads the counters under the segment lock.
func (s *Segment) Stats() (Stats, error) {
	if err := s.Lock(); err != nil {
		return Stats{}, err
	}
	defer s.Unlock()
	return s.StatsLocked(), nil
}

// StatsLocked reads the counters. The caller must hold the lock.
func (s *Segment) StatsLocked() Stats {
	h := s.hdr
	taken := h.Stat(format.StatCellsTaken)
	st := Stats{
		CellsTaken: taken,
		AllocCalls: h.Stat(format.StatAllocCalls),
		FreeCalls:  h.Stat(format.StatFreeCalls),
		AllocFails: h.Stat(format.StatAllocFails),
		FreeFails:  h.Stat(format.StatFreeFails),
	}
	if n := uint64(s.layout.CellsNum); taken <= n {
		st.CellsFree = n - taken
	}
	return st
}

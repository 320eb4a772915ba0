package led

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coreman2200/funtimes-treelights/internal/scan"
)

// SimOutput is an in-memory output-driver peripheral.
type SimOutput struct {
	units   int
	started atomic.Bool
	starts  atomic.Uint32
	compare [2]atomic.Uint32
}

func (s *SimOutput) Start() error {
	s.started.Store(true)
	s.starts.Add(1)
	return nil
}

func (s *SimOutput) SetCompare(unit int, v uint8) error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	if unit < 0 || unit >= s.units {
		return fmt.Errorf("led: compare unit %d out of range", unit)
	}
	s.compare[unit].Store(uint32(v))
	return nil
}

func (s *SimOutput) Compare(unit int) uint8 {
	return uint8(s.compare[unit].Load())
}

func (s *SimOutput) Starts() uint32 {
	return s.starts.Load()
}

// SimSource records row-select writes and counts any pattern asserting more
// than one row.
type SimSource struct {
	mu         sync.Mutex
	mask       uint8
	writes     int
	violations int
	order      []int
	keepOrder  bool
}

var _ scan.Source = (*SimSource)(nil)

func NewSimSource() *SimSource {
	return &SimSource{mask: scan.AllRowsOff}
}

// RecordOrder makes the source remember every asserted row. Meant for tests;
// recording allocates.
func (s *SimSource) RecordOrder() *SimSource {
	s.keepOrder = true
	return s
}

func (s *SimSource) SetSource(mask uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mask = mask & scan.AllRowsOff
	s.writes++
	n := scan.AssertedRows(s.mask)
	if n > 1 {
		s.violations++
	}
	if n == 1 && s.keepOrder {
		for r := 0; r < 4; r++ {
			if s.mask == scan.RowMask(r) {
				s.order = append(s.order, r)
			}
		}
	}
	return nil
}

func (s *SimSource) Mask() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask
}

func (s *SimSource) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *SimSource) Violations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

// Order returns the asserted rows in the order they were selected.
func (s *SimSource) Order() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...)
}

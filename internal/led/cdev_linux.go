//go:build linux

package led

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

// CdevSource drives the row-select lines through the GPIO character device.
type CdevSource struct {
	mu    sync.Mutex
	lines *gpiocdev.Lines
	vals  []int
}

var _ scan.Source = (*CdevSource)(nil)

// OpenCdev requests the four row lines on chip (e.g. "gpiochip0") as
// outputs, all released.
func OpenCdev(chip string, offsets []int) (*CdevSource, error) {
	if len(offsets) != model.RowCount {
		return nil, fmt.Errorf("led: need %d row offsets, got %d", model.RowCount, len(offsets))
	}
	lines, err := gpiocdev.RequestLines(chip, offsets,
		gpiocdev.AsOutput(1, 1, 1, 1),
		gpiocdev.WithConsumer("treelights"))
	if err != nil {
		return nil, fmt.Errorf("led: request rows on %s: %w", chip, err)
	}
	return &CdevSource{lines: lines, vals: make([]int, model.RowCount)}, nil
}

func (s *CdevSource) SetSource(mask uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		return fmt.Errorf("led: cdev source closed")
	}
	for r := range s.vals {
		s.vals[r] = int(mask>>uint(r)) & 1
	}
	return s.lines.SetValues(s.vals)
}

func (s *CdevSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		return nil
	}
	err := s.lines.Close()
	s.lines = nil
	return err
}

//go:build !linux

package led

import "fmt"

type CdevSource struct{}

func OpenCdev(chip string, offsets []int) (*CdevSource, error) {
	return nil, fmt.Errorf("gpio character device not supported on this platform")
}

func (s *CdevSource) SetSource(mask uint8) error {
	return fmt.Errorf("gpio character device not supported on this platform")
}

func (s *CdevSource) Close() error { return nil }

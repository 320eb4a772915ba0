// Package mirror copies the light buffer to a periph display.Drawer: an
// nrzled strip on SPI, or the console when no SPI port is present.
package mirror

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-treelights/model"
)

const (
	DFLT_FPS     = 20
	DFLT_SPI_HZ  = 2500 * physic.KiloHertz
	SCREEN_WIDTH = 100
)

// Output is an opened drawer and the port behind it, if any.
type Output struct {
	Drawer display.Drawer
	Spi    bool
	port   spi.PortCloser
}

func (o *Output) Close() error {
	if o.port == nil {
		return nil
	}
	return o.port.Close()
}

// Open opens an nrzled strip of n pixels on spiDev when kind is "spi",
// falling back to the console when the port cannot be opened.
func Open(kind, spiDev string, n int) (*Output, error) {
	if kind != "spi" {
		return &Output{Drawer: screen.New(SCREEN_WIDTH)}, nil
	}
	p, err := spireg.Open(spiDev)
	if err != nil {
		log.Warn().Err(err).Str("dev", spiDev).Msg("no SPI port, mirroring to the console")
		return &Output{Drawer: screen.New(SCREEN_WIDTH)}, nil
	}
	d, err := NewStrip(p, n)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &Output{Drawer: d, Spi: true, port: p}, nil
}

// NewStrip connects an RGB nrzled strip of n pixels to p.
func NewStrip(p spi.Port, n int) (*nrzled.Dev, error) {
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: n,
		Channels:  3,
		Freq:      DFLT_SPI_HZ,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: nrzled: %w", err)
	}
	return d, d.Halt()
}

type Mirror struct {
	lights *model.Lights
	drawer display.Drawer
	period time.Duration
	max    uint8

	frames atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New mirrors l to d fps times a second, each channel scaled by max/255.
func New(l *model.Lights, d display.Drawer, fps int, max uint8) *Mirror {
	if fps <= 0 {
		fps = DFLT_FPS
	}
	return &Mirror{lights: l, drawer: d, period: time.Second / time.Duration(fps), max: max}
}

// Frame draws the current buffer once.
func (m *Mirror) Frame() error {
	img := m.lights.Image()
	if m.max != 255 {
		for i := 0; i < model.LedCount; i++ {
			img.SetNRGBA(i, 0, m.lights.LED(i).Scale(m.max).ToNRGBA())
		}
	}
	if err := m.drawer.Draw(m.drawer.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	m.frames.Add(1)
	return nil
}

func (m *Mirror) Frames() uint64 {
	return m.frames.Load()
}

func (m *Mirror) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Frame(); err != nil {
					log.Warn().Err(err).Msg("mirror frame")
				}
			}
		}
	}()
	log.Debug().Str("drawer", m.drawer.String()).Dur("period", m.period).Msg("mirror started")
}

// Stop ends the refresh goroutine and halts the drawer.
func (m *Mirror) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
		m.wg.Wait()
	}
	return m.drawer.Halt()
}

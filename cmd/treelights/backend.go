package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-treelights/internal/animation"
	"github.com/coreman2200/funtimes-treelights/internal/config"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/scan"
)

// backend is the compare channels and row source the scan driver runs on.
type backend struct {
	name    string
	chans   scan.Channels
	src     scan.Source
	closers []io.Closer
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func simBackend() *backend {
	return &backend{name: "sim", chans: led.NewSimBank(), src: led.NewSimSource()}
}

func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.Driver == "sim" {
		return simBackend(), nil
	}
	b := &backend{name: cfg.Driver}
	switch cfg.Driver {
	case "pins":
		freq := physic.Frequency(cfg.Pins.PWMHz) * physic.Hertz
		if cfg.RowSource == "" {
			ch, src, err := led.OpenPins(cfg.Pins.Compare, cfg.Pins.Rows, freq)
			if err != nil {
				return nil, err
			}
			b.chans, b.src = ch, src
			return b, nil
		}
		cp, err := led.LookupPins(cfg.Pins.Compare)
		if err != nil {
			return nil, err
		}
		ch, err := led.NewPinChannels(cp, freq)
		if err != nil {
			return nil, err
		}
		b.chans = ch
	case "pca9685":
		p, err := led.OpenPCA9685(cfg.PCA9685.Bus, cfg.PCA9685.Addr, physic.Frequency(cfg.PCA9685.PWMHz)*physic.Hertz)
		if err != nil {
			return nil, err
		}
		b.chans = p
		b.closers = append(b.closers, p)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}

	if cfg.RowSource == "cdev" {
		s, err := led.OpenCdev(cfg.Cdev.Chip, cfg.Cdev.Rows)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.src = s
		b.closers = append(b.closers, s)
		return b, nil
	}
	rows, err := led.LookupPins(cfg.Pins.Rows)
	if err != nil {
		b.Close()
		return nil, err
	}
	s, err := led.NewPinSource(rows)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.src = s
	return b, nil
}

func animationOptions(cfg *config.Config) animation.Options {
	opts := animation.DefaultOptions()
	opts.WashRepeats = cfg.Wash.Repeats
	opts.WashHold = time.Duration(cfg.Wash.HoldMs) * time.Millisecond
	opts.ChasePasses = cfg.Chase.Passes
	opts.ChaseStep = time.Duration(cfg.Chase.StepMs) * time.Millisecond
	opts.SelfTest = cfg.SelfTest
	opts.Cycles = cfg.Cycles
	return opts
}

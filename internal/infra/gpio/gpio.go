// Package gpio adapts the controller's two hardware signals, the
// carrier-operated squelch input and the remote-busy output, to
// periph.io pins.
package gpio

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Init loads the periph host drivers. Call once at startup, before
// opening any pin.
func Init() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize gpio host drivers")
	}
	return nil
}

// COSInput reads the channel-busy squelch signal. The pin uses the
// internal pull-up, so the idle level is high and an active-low wiring
// is the default.
type COSInput struct {
	pin        gpio.PinIO
	activeHigh bool
}

// NewCOSInput opens the named pin as a pulled-up input.
func NewCOSInput(name string, activeHigh bool) (*COSInput, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Newf("gpio pin %q not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to set up pin %q as input", name)
	}
	return &COSInput{pin: pin, activeHigh: activeHigh}, nil
}

// Busy reports whether the channel is active right now.
func (c *COSInput) Busy() bool {
	return bool(c.pin.Read()) == c.activeHigh
}

// BusyOutput drives the remote-busy line toward the repeater
// controller.
type BusyOutput struct {
	pin        gpio.PinIO
	activeHigh bool
}

// NewBusyOutput opens the named pin as an output, deasserted.
func NewBusyOutput(name string, activeHigh bool) (*BusyOutput, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Newf("gpio pin %q not found", name)
	}
	out := &BusyOutput{pin: pin, activeHigh: activeHigh}
	if err := pin.Out(out.level(false)); err != nil {
		return nil, errors.Wrapf(err, "failed to set up pin %q as output", name)
	}
	return out, nil
}

// SetBusy drives the output. Write failures are logged, not returned;
// a flaky pin must not take playback down.
func (o *BusyOutput) SetBusy(busy bool) {
	if err := o.pin.Out(o.level(busy)); err != nil {
		zlog.Error().Err(err).Bool("busy", busy).Msg("failed to drive remote-busy pin")
	}
}

func (o *BusyOutput) level(busy bool) gpio.Level {
	return gpio.Level(busy == o.activeHigh)
}

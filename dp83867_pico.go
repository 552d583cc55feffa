//go:build rp2040 || rp2350

package dp83867

import (
	"machine"
	"time"

	"github.com/soypat/lneto/phy"
)

// PicoConfig holds configuration for managing a DP83867 from RP2040/RP2350.
// Only the management (MDIO) interface is driven from the Pico; the RGMII or
// SGMII data path belongs to whatever MAC the PHY is wired to.
type PicoConfig struct {
	// PHYConfig is the DP83867 driver configuration.
	PHYConfig Config
	// MDC is the MDIO clock pin.
	MDC machine.Pin
	// MDIO is the MDIO data pin.
	MDIO machine.Pin
}

// NewPicoDP83867 creates and configures a DP83867 reached over bit-banged
// MDIO on the given pins.
func NewPicoDP83867(cfg PicoConfig) (*PHY, error) {
	mdio := makeMDIO(cfg.MDC, cfg.MDIO)
	var dev PHY
	err := dev.Configure(mdio, cfg.PHYConfig)
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// makeMDIO sets up MDIO bit-bang interface for PHY register access.
func makeMDIO(pinMDC, pinMDIO machine.Pin) *phy.MDIOBitBang {
	const mdioDelay = 340 * time.Nanosecond // MDIO spec max turnaround time

	pinMDIO.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinMDC.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinMDC.Low()

	var bus phy.MDIOBitBang
	bus.Configure(
		func(outBit bool) {
			// sendBit: set data, clock high, clock low
			if outBit {
				pinMDIO.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
			} else {
				pinMDIO.Low()
				pinMDIO.Configure(machine.PinConfig{Mode: machine.PinOutput})
			}
			time.Sleep(mdioDelay)
			pinMDC.High()
			time.Sleep(mdioDelay)
			pinMDC.Low()
		},
		func() bool {
			// getBit: clock high, read, clock low
			time.Sleep(mdioDelay)
			pinMDC.High()
			time.Sleep(mdioDelay)
			pinMDC.Low()
			return pinMDIO.Get()
		},
		func(setOut bool) {
			// setDir: configure pin direction
			if setOut {
				pinMDIO.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
			} else {
				pinMDIO.Configure(machine.PinConfig{Mode: machine.PinInput})
			}
		},
	)
	return &bus
}

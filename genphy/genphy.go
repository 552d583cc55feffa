// Package genphy implements device-independent Ethernet PHY management:
// detection on the MDIO bus, IEEE 802.3 auto-negotiation advertisement and
// restart policy, link-up wait and link parameter resolution, and the
// Clause 22 indirect access protocol for MMD-extended registers.
//
// Model-specific drivers (see the parent dp83867 package) consume the
// engine's register access services to run their vendor configuration
// sequence, then hand control back to ConfigAneg and Startup.
package genphy

import (
	"errors"
	"log/slog"
	"time"

	"github.com/soypat/lneto/phy"
)

const (
	regPhyID1 = 0x02
	regPhyID2 = 0x03
)

var (
	// ErrNoPHYFound means the detection scan exhausted MDIO addresses 0-31
	// without a valid response.
	ErrNoPHYFound = errors.New("genphy: no PHY found on MDIO bus")
	// ErrCapabilityMismatch means the status register lacks the
	// extended-status bit required of gigabit-class PHYs
	// (IEEE 802.3 Clause 22.2.4.2.16).
	ErrCapabilityMismatch = errors.New("genphy: PHY lacks extended status (BMSR.ESTATEN)")
	// ErrLinkWaitTimeout means auto-negotiation did not complete before the
	// deadline passed to UpdateLink or Startup.
	ErrLinkWaitTimeout = errors.New("genphy: link wait deadline exceeded")
)

// Device is the generic PHY engine for a single transceiver. It owns the
// resolved MDIO bus address and the capability set supplied at construction,
// both immutable for the Device's lifetime. A Device is not safe for
// concurrent use without external serialization.
type Device struct {
	mdio phy.MDIOBus
	log  *slog.Logger
	addr uint8
	caps Capabilities
}

// New detects a PHY on the bus and returns an engine bound to it. The BMSR at
// phyAddr is probed first; if it does not respond with a valid pattern the
// scan walks addresses 31 down to 0 and binds the first valid one. The
// descending order is a deliberate tie-break kept for compatibility with
// existing board bring-up. Returns ErrNoPHYFound if no address responds.
func New(mdio phy.MDIOBus, phyAddr uint8, caps Capabilities) (*Device, error) {
	if mdio == nil {
		return nil, errors.New("genphy: nil MDIOBus")
	}
	d := &Device{mdio: mdio, caps: caps}
	addr, err := d.detect(phyAddr)
	if err != nil {
		return nil, err
	}
	d.addr = addr
	return d, nil
}

// PHYAddr returns the resolved MDIO bus address (0-31).
func (d *Device) PHYAddr() uint8 { return d.addr }

// Capabilities returns the capability set supplied at construction.
func (d *Device) Capabilities() Capabilities { return d.caps }

// ID1 reads the PHY Identifier 1 register, bits 3-18 of the OUI.
func (d *Device) ID1() (uint16, error) { return d.rread(regPhyID1) }

// ID2 reads the PHY Identifier 2 register, OUI low bits plus model/revision.
func (d *Device) ID2() (uint16, error) { return d.rread(regPhyID2) }

func (d *Device) isValidAddr(addr uint8) bool {
	v, err := d.mdio.Read(addr, 0, phy.AddrBMSR)
	return err == nil && v != 0xffff && v&detectMask == detectMask
}

func (d *Device) detect(phyAddr uint8) (uint8, error) {
	if phyAddr <= 31 && d.isValidAddr(phyAddr) {
		return phyAddr, nil
	}
	for addr := 31; addr >= 0; addr-- {
		if d.isValidAddr(uint8(addr)) {
			d.debug("phy:detected", slog.Uint64("addr", uint64(addr)))
			return uint8(addr), nil
		}
	}
	return 0, ErrNoPHYFound
}

// configAdvert composes the ANAR and GBCR advertisement patterns from the
// capability set and writes each back only if it differs from what the PHY
// currently holds. Reports whether anything was written.
func (d *Device) configAdvert() (changed bool, err error) {
	adv, err := d.LoadReg(DirectReg(phy.AddrANAR))
	if err != nil {
		return false, err
	}
	initAdv := adv.Value()
	wantAdv, advMask := d.caps.anar()
	adv.ReplaceBits(uint16(advMask), uint16(wantAdv))
	if adv.Value() != initAdv {
		err = d.StoreReg(adv)
		if err != nil {
			return false, err
		}
		changed = true
	}

	// All 1000Mbit/s capable PHYs are required to have extended status
	// (802.3-2008 section 22.2.4.2.16).
	bmsr, err := d.LoadReg(DirectReg(phy.AddrBMSR))
	if err != nil {
		return changed, err
	}
	if !bmsr.IsSet(uint16(phy.BMSRExtStatus)) {
		return changed, ErrCapabilityMismatch
	}

	gbcr, err := d.LoadReg(DirectReg(AddrGBCR))
	if err != nil {
		return changed, err
	}
	initGbcr := gbcr.Value()
	wantGbcr, gbcrMask := d.caps.gbcr()
	gbcr.ReplaceBits(uint16(gbcrMask), uint16(wantGbcr))
	if gbcr.Value() != initGbcr {
		err = d.StoreReg(gbcr)
		if err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// restartAneg enables auto-negotiation and restarts it, making sure not to
// leave the PHY isolated from the MII.
func (d *Device) restartAneg() error {
	bmcr, err := d.LoadReg(DirectReg(phy.AddrBMCR))
	if err != nil {
		return err
	}
	bmcr.SetBits(uint16(phy.BMCRANEnable | phy.BMCRANRestart))
	bmcr.ClearBits(uint16(phy.BMCRIsolate))
	d.debug("phy:restart-aneg")
	return d.StoreReg(bmcr)
}

// ConfigAneg pushes the advertisement to the PHY and restarts
// auto-negotiation if anything changed. An unchanged advertisement still
// forces a restart when the PHY is isolated or has auto-negotiation
// disabled, since either invalidates whatever was negotiated before.
func (d *Device) ConfigAneg() error {
	changed, err := d.configAdvert()
	if err != nil {
		return err
	}
	if !changed {
		bmcr, err := d.LoadReg(DirectReg(phy.AddrBMCR))
		if err != nil {
			return err
		}
		if bmcr.IsSet(uint16(phy.BMCRIsolate)) || !bmcr.IsSet(uint16(phy.BMCRANEnable)) {
			changed = true
		}
	}
	if changed {
		return d.restartAneg()
	}
	return nil
}

// linkPollInterval paces the auto-negotiation completion poll. Negotiation
// takes on the order of seconds; hammering the management bus gains nothing.
const linkPollInterval = 10 * time.Millisecond

// UpdateLink waits for a usable link state. If link status is already up
// nothing more is done. Otherwise, if auto-negotiation has completed, one
// extra status read clears the latched link bit; if not, the status register
// is polled until negotiation completes or deadline passes. A zero deadline
// polls without bound, matching PHYs that are known to be wired up; prefer a
// deadline on anything that can be unplugged.
func (d *Device) UpdateLink(deadline time.Time) error {
	bmsr, err := d.LoadReg(DirectReg(phy.AddrBMSR))
	if err != nil {
		return err
	}
	if bmsr.IsSet(uint16(phy.BMSRLinkStatus)) {
		return nil
	}
	if bmsr.IsSet(uint16(phy.BMSRANComplete)) {
		// Second read clears the latched link-down state.
		return d.ReloadReg(&bmsr)
	}
	for !bmsr.IsSet(uint16(phy.BMSRANComplete)) {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrLinkWaitTimeout
		}
		time.Sleep(linkPollInterval)
		err = d.ReloadReg(&bmsr)
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseLink resolves the negotiated speed and duplex from the status
// registers. Gigabit, when advertised and confirmed by the link partner,
// always wins and is resolved from the 1000BASE-T status/control pair.
// Otherwise the resolution falls to the advertisement/partner intersection,
// with a final extended-status check for PHYs that signal gigabit without
// implementing the 1000BASE-T registers.
func (d *Device) ParseLink() (phy.LinkMode, error) {
	speed := 10
	fullDuplex := false

	if d.caps.Gigabit() {
		gblpa, err := d.LoadReg(DirectReg(AddrGBSR))
		if err != nil {
			return phy.LinkDown, err
		}
		gbcr, err := d.rread(AddrGBCR)
		if err != nil {
			return phy.LinkDown, err
		}
		// GBCR advertisement bits line up with GBSR partner bits when
		// shifted left by 2; the intersection is what both ends support.
		gblpa.Set(gblpa.Value() & (gbcr << 2))
		if gblpa.MatchesAny(uint16(GBSRLP1000Full | GBSRLP1000Half)) {
			mode := phy.Link1000HDX
			if gblpa.IsSet(uint16(GBSRLP1000Full)) {
				mode = phy.Link1000FDX
			}
			d.debug("phy:link", slog.String("mode", mode.String()))
			return mode, nil
		}
	}

	adv, err := d.LoadReg(DirectReg(phy.AddrANAR))
	if err != nil {
		return phy.LinkDown, err
	}
	lpa, err := d.rread(phy.AddrANLPAR)
	if err != nil {
		return phy.LinkDown, err
	}
	adv.Set(adv.Value() & lpa)
	if adv.MatchesAny(uint16(phy.ANAR100Full | phy.ANAR100Half)) {
		speed = 100
		fullDuplex = adv.IsSet(uint16(phy.ANAR100Full))
	} else if adv.IsSet(uint16(phy.ANAR10Full)) {
		fullDuplex = true
	}

	// Extended status may indicate 1000BASE-T/X support even though the
	// 1000BASE-T registers are missing. The peer's capabilities cannot be
	// read in that case, so extended status is only consulted when the
	// extended register set is actually absent.
	bmsr, err := d.LoadReg(DirectReg(phy.AddrBMSR))
	if err != nil {
		return phy.LinkDown, err
	}
	if bmsr.IsSet(uint16(phy.BMSRExtStatus)) && !bmsr.IsSet(uint16(phy.BMSRExtCap)) {
		estatus, err := d.LoadReg(DirectReg(AddrEStatus))
		if err != nil {
			return phy.LinkDown, err
		}
		if estatus.MatchesAny(uint16(EStatus1000TFull | EStatus1000THalf | EStatus1000XFull | EStatus1000XHalf)) {
			speed = 1000
			if estatus.MatchesAny(uint16(EStatus1000TFull | EStatus1000XFull)) {
				fullDuplex = true
			}
		}
	}

	mode := linkMode(speed, fullDuplex)
	d.debug("phy:link", slog.String("mode", mode.String()))
	return mode, nil
}

// Startup waits for the link and resolves the negotiated parameters.
// See UpdateLink for deadline semantics.
func (d *Device) Startup(deadline time.Time) (phy.LinkMode, error) {
	err := d.UpdateLink(deadline)
	if err != nil {
		return phy.LinkDown, err
	}
	return d.ParseLink()
}

func linkMode(speedMbps int, fullDuplex bool) phy.LinkMode {
	switch {
	case speedMbps == 1000 && fullDuplex:
		return phy.Link1000FDX
	case speedMbps == 1000:
		return phy.Link1000HDX
	case speedMbps == 100 && fullDuplex:
		return phy.Link100FDX
	case speedMbps == 100:
		return phy.Link100HDX
	case fullDuplex:
		return phy.Link10FDX
	default:
		return phy.Link10HDX
	}
}

func (d *Device) rread(regaddr uint16) (uint16, error) {
	return d.mdio.Read(d.addr, 0, regaddr)
}

func (d *Device) rwrite(regaddr, value uint16) error {
	return d.mdio.Write(d.addr, 0, regaddr, value)
}

// Package dp83867 provides a driver for the Texas Instruments DP83867
// gigabit Ethernet PHY transceiver.
//
// The DP83867 is a 10/100/1000BASE-T PHY with RGMII and SGMII MAC
// interfaces, commonly found on Zynq and Sitara boards. This package
// sequences the vendor configuration registers (interface mode, RGMII clock
// delay tuning, strap erratum workarounds, clock output muxing) and drives
// IEEE 802.3 auto-negotiation through the generic engine in the genphy
// subpackage.
package dp83867

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soypat/dp83867/genphy"
	"github.com/soypat/lneto/phy"
)

// PHY identifier reported in ID1/ID2 by the DP83867 family,
// with the silicon revision bits masked off.
const (
	phyID     = 0x2000a231
	phyIDMask = 0xfffffff0
)

// Config holds the configuration parameters for initializing a DP83867.
type Config struct {
	// PHYAddr is the strapped MDIO address of the PHY. If no PHY answers at
	// this address the bus is scanned and the first responding address wins.
	// Valid range is 0-31.
	PHYAddr uint8
	// Capabilities is the media capability set advertised during
	// auto-negotiation. Use genphy.GigabitCapabilities() for a standard
	// copper gigabit setup.
	Capabilities genphy.Capabilities
	// Interface selects the MAC interface mode and RGMII delay sub-variant.
	Interface Interface
	// RxDelay and TxDelay are the internal RGMII clock delays, applied only
	// for the RGMII interface modes. Zero values select 2.00ns.
	RxDelay Delay
	TxDelay Delay
	// FIFODepth sets the PHY FIFO depth (TX for RGMII, RX and TX for SGMII).
	FIFODepth FIFODepth
	// RxCtrlStrapQuirk works around boards whose RX_DV/RX_CTRL strap puts
	// the PHY in an unsupported mode: it clears the internal test mode bit
	// that would otherwise silently disable the transmit path.
	RxCtrlStrapQuirk bool
	// PortMirroring enables or disables port mirroring. The zero value
	// keeps the strapped setting and never touches the register.
	PortMirroring PortMirroring
	// ClkOutput reconfigures the CLK_OUT pin. The zero value keeps the
	// current muxing.
	ClkOutput ClkOutput
	// SetIOImpedance enables writing IOImpedance to the I/O mux
	// configuration. When false the factory/strap trim is kept.
	SetIOImpedance bool
	// IOImpedance is the 5-bit MAC I/O impedance trim (0 highest, 31 lowest).
	IOImpedance uint8
	// SGMIIRefClkEnable outputs the SGMII reference clock, for MACs that
	// need the PHY to source it.
	SGMIIRefClkEnable bool
}

// PHY represents a DP83867 Ethernet PHY. Use Configure to detect the device
// and run the vendor configuration sequence before using any other method.
type PHY struct {
	dev *genphy.Device
	log *slog.Logger
	cfg Config
}

// SetLogger sets the logger for the driver and its generic engine. Call
// before Configure to capture the configuration sequence. A nil logger
// disables logging.
func (p *PHY) SetLogger(log *slog.Logger) {
	p.log = log
	if p.dev != nil {
		p.dev.SetLogger(log)
	}
}

// Device returns the underlying generic PHY engine. Only valid after a
// successful Configure.
func (p *PHY) Device() *genphy.Device { return p.dev }

// ID reads the composed 32-bit PHY identifier (OUI, model and revision).
func (p *PHY) ID() (uint32, error) {
	id1, err := p.dev.ID1()
	if err != nil {
		return 0, err
	}
	id2, err := p.dev.ID2()
	if err != nil {
		return 0, err
	}
	return uint32(id1)<<16 | uint32(id2), nil
}

// Configure detects the PHY on the MDIO bus, runs the DP83867 vendor
// configuration sequence for the selected interface mode and restarts
// auto-negotiation. On failure the PHY may be left partially configured;
// treat link bring-up as failed and Configure again from scratch.
func (p *PHY) Configure(mdio phy.MDIOBus, cfg Config) (err error) {
	if cfg.Capabilities == (genphy.Capabilities{}) {
		return errors.New("dp83867: empty capability set")
	} else if cfg.RxDelay > Delay4ns00 || cfg.TxDelay > Delay4ns00 {
		return errors.New("dp83867: delay out of range")
	} else if cfg.SetIOImpedance && cfg.IOImpedance > 31 {
		return errors.New("dp83867: I/O impedance trim out of range")
	} else if cfg.ClkOutput > ClkOutputRefClk {
		return errors.New("dp83867: invalid clock output source")
	}
	p.cfg = cfg
	p.dev, err = genphy.New(mdio, cfg.PHYAddr, cfg.Capabilities)
	if err != nil {
		return err
	}
	p.dev.SetLogger(p.log)
	id, err := p.ID()
	if err != nil {
		return err
	}
	if id&phyIDMask != phyID&phyIDMask {
		// Strapping variants and sims report odd revisions; proceed anyway.
		p.warn("dp83867:unexpected-id", slog.Uint64("id", uint64(id)))
	}
	return p.config()
}

// WaitAutoNegotiation waits for auto-negotiation to complete and the link to
// establish, then returns the negotiated link mode. Auto-negotiation against
// a gigabit partner routinely takes 2-3 seconds; size the timeout accordingly.
func (p *PHY) WaitAutoNegotiation(timeout time.Duration) (phy.LinkMode, error) {
	return p.dev.Startup(time.Now().Add(timeout))
}

// config runs the vendor configuration sequence and hands control back to
// the generic engine's auto-negotiation restart.
func (p *PHY) config() error {
	// Restart the PHY without reloading straps.
	ctrl, err := p.dev.LoadReg(genphy.DirectReg(regCTRL))
	if err != nil {
		return err
	}
	ctrl.SetBits(ctrlSWRestart)
	err = p.dev.StoreReg(ctrl)
	if err != nil {
		return err
	}

	if p.cfg.RxCtrlStrapQuirk {
		cfg4, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regCFG4))
		if err != nil {
			return err
		}
		cfg4.ClearBits(cfg4IntTstMode1)
		err = p.dev.StoreReg(cfg4)
		if err != nil {
			return err
		}
	}

	if p.cfg.Interface.IsRGMII() {
		err = p.rgmiiConfig()
	} else if p.cfg.Interface == InterfaceSGMII {
		err = p.sgmiiConfig()
	}
	if err != nil {
		return err
	}

	if p.cfg.SetIOImpedance {
		ioMux, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regIOMUXCFG))
		if err != nil {
			return err
		}
		ioMux.ReplaceBits(iomuxIOImpedanceMask, uint16(p.cfg.IOImpedance))
		err = p.dev.StoreReg(ioMux)
		if err != nil {
			return err
		}
	}

	err = p.configPortMirroring()
	if err != nil {
		return err
	}

	if p.cfg.ClkOutput != ClkOutputKeep {
		ioMux, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regIOMUXCFG))
		if err != nil {
			return err
		}
		if p.cfg.ClkOutput == ClkOutputOff {
			ioMux.SetBits(iomuxClkODisable)
		} else {
			ioMux.ClearBits(iomuxClkODisable)
			ioMux.ReplaceBits(iomuxClkOSelMask, p.cfg.ClkOutput.sel())
		}
		err = p.dev.StoreReg(ioMux)
		if err != nil {
			return err
		}
	}

	p.debug("dp83867:configured", slog.String("interface", p.cfg.Interface.String()))
	return p.dev.ConfigAneg()
}

func (p *PHY) rgmiiConfig() error {
	phyCtrl, err := p.dev.LoadReg(genphy.DirectReg(regPHYCR))
	if err != nil {
		return err
	}
	phyCtrl.ReplaceBits(phycrTxFIFODepthMask, uint16(p.cfg.FIFODepth)<<phycrTxFIFODepthPos)
	phyCtrl.ClearBits(phycrForceLinkGood)

	// A power-on bootstrap combination can select an unsupported test mode
	// that silently disables RGMII transmission. It is only visible through
	// the reserved bit 11 of STRAP_STS1; clearing SGMII enable recovers the
	// transmit path.
	strapSts1, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regSTRAPSTS1))
	if err != nil {
		return err
	}
	if strapSts1.IsSet(strapSts1Reserved11) {
		p.warn("dp83867:strap-test-mode")
		phyCtrl.ClearBits(phycrSGMIIEn)
	}
	err = p.dev.StoreReg(phyCtrl)
	if err != nil {
		return err
	}

	rgmiiCtl, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regRGMIICTL))
	if err != nil {
		return err
	}
	rgmiiCtl.ClearBits(rgmiictlRxClkDelay | rgmiictlTxClkDelay)
	switch p.cfg.Interface {
	case InterfaceRGMIIID:
		rgmiiCtl.SetBits(rgmiictlRxClkDelay | rgmiictlTxClkDelay)
	case InterfaceRGMIIRxID:
		rgmiiCtl.SetBits(rgmiictlRxClkDelay)
	case InterfaceRGMIITxID:
		rgmiiCtl.SetBits(rgmiictlTxClkDelay)
	}
	err = p.dev.StoreReg(rgmiiCtl)
	if err != nil {
		return err
	}

	rgmiiDCtl := genphy.NewReg(genphy.MMDReg(DevAddr, regRGMIIDCTL))
	rgmiiDCtl.Set(p.cfg.RxDelay.code() | p.cfg.TxDelay.code()<<rgmiidctlTxDelayPos)
	return p.dev.StoreReg(rgmiiDCtl)
}

func (p *PHY) sgmiiConfig() error {
	if p.cfg.SGMIIRefClkEnable {
		sgmiiCtl := genphy.NewReg(genphy.MMDReg(DevAddr, regSGMIICTL))
		sgmiiCtl.Set(sgmiictlRefClkEn)
		err := p.dev.StoreReg(sgmiiCtl)
		if err != nil {
			return err
		}
	}

	// SGMII runs the copper side at a fixed gigabit full-duplex setting;
	// the serial side autonegotiates.
	bmcr := genphy.NewReg(genphy.DirectReg(phy.AddrBMCR))
	bmcr.Set(uint16(phy.BMCRANEnable | phy.BMCRFullDuplex | phy.BMCRSpeed1000))
	err := p.dev.StoreReg(bmcr)
	if err != nil {
		return err
	}

	cfg2, err := p.dev.LoadReg(genphy.DirectReg(regCFG2))
	if err != nil {
		return err
	}
	cfg2.SetBits(cfg2SpeedOpt10M | cfg2SGMIIAutoNegEn | cfg2SpeedOptEnhanced | cfg2IntPolarityLow)
	cfg2.ReplaceBits(cfg2AttemptCntMask, cfg2AttemptCnt4)
	err = p.dev.StoreReg(cfg2)
	if err != nil {
		return err
	}

	// RGMII pads are unused in SGMII mode.
	rgmiiCtl := genphy.NewReg(genphy.MMDReg(DevAddr, regRGMIICTL))
	rgmiiCtl.Set(0)
	err = p.dev.StoreReg(rgmiiCtl)
	if err != nil {
		return err
	}

	phyCtrl := genphy.NewReg(genphy.DirectReg(regPHYCR))
	phyCtrl.Set(phycrSGMIIEn | phycrMDICrossoverAuto |
		uint16(p.cfg.FIFODepth)<<phycrRxFIFODepthPos |
		uint16(p.cfg.FIFODepth)<<phycrTxFIFODepthPos)
	err = p.dev.StoreReg(phyCtrl)
	if err != nil {
		return err
	}

	return p.dev.WriteRegister(genphy.DirectReg(regBISCR), 0)
}

func (p *PHY) configPortMirroring() error {
	var set bool
	switch p.cfg.PortMirroring {
	case PortMirroringEnable:
		set = true
	case PortMirroringDisable:
		set = false
	default:
		// Keep: leave the strapped setting, no bus access at all.
		return nil
	}
	cfg4, err := p.dev.LoadReg(genphy.MMDReg(DevAddr, regCFG4))
	if err != nil {
		return err
	}
	if set {
		cfg4.SetBits(cfg4PortMirrorEn)
	} else {
		cfg4.ClearBits(cfg4PortMirrorEn)
	}
	return p.dev.StoreReg(cfg4)
}

func (p *PHY) logattrs(lvl slog.Level, msg string, attrs ...slog.Attr) {
	if p.log != nil && p.log.Handler().Enabled(context.Background(), lvl) {
		p.log.LogAttrs(context.Background(), lvl, msg, attrs...)
	}
}

func (p *PHY) debug(msg string, attrs ...slog.Attr) {
	p.logattrs(slog.LevelDebug, msg, attrs...)
}

func (p *PHY) warn(msg string, attrs ...slog.Attr) {
	p.logattrs(slog.LevelWarn, msg, attrs...)
}

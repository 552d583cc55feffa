package dp83867

import (
	"errors"
	"testing"
	"time"

	"github.com/soypat/dp83867/genphy"
	"github.com/soypat/dp83867/internal/mdiosim"
	"github.com/soypat/lneto/phy"
)

const simAddr = 1

// newSim returns a bus holding one DP83867-looking PHY: correct identifier,
// link up and auto-negotiation complete so startup resolves immediately.
func newSim() (*mdiosim.Bus, *mdiosim.PHY) {
	var bus mdiosim.Bus
	sim := mdiosim.NewPHY()
	sim.SetReg(0x02, 0x2000) // ID1
	sim.SetReg(0x03, 0xa231) // ID2
	sim.SetReg(phy.AddrBMSR, 0x792d)
	sim.SetReg(genphy.AddrGBSR, uint16(genphy.GBSRLP1000Full|genphy.GBSRLP1000Half))
	bus.Attach(simAddr, sim)
	return &bus, sim
}

func rgmiiConfig() Config {
	return Config{
		PHYAddr:      simAddr,
		Capabilities: genphy.GigabitCapabilities(),
		Interface:    InterfaceRGMIIID,
		RxDelay:      Delay2ns00,
		TxDelay:      Delay2ns00,
		FIFODepth:    FIFODepth4,
	}
}

func TestDelayTableRoundTrip(t *testing.T) {
	for d := Delay0ns25; d <= Delay4ns00; d++ {
		code := d.code()
		if code > 0xf {
			t.Fatalf("delay %d: code %#x does not fit the 4-bit field", d, code)
		}
		if back := delayFromCode(code); back != d {
			t.Fatalf("delay %d: code %#x decodes to %d", d, code, back)
		}
		wantPs := int(d) * 250
		if d.Picoseconds() != wantPs {
			t.Fatalf("delay %d: %dps, want %dps", d, d.Picoseconds(), wantPs)
		}
		fromPs, ok := DelayFromPicoseconds(wantPs)
		if !ok || fromPs != d {
			t.Fatalf("DelayFromPicoseconds(%d) = %d, %t", wantPs, fromPs, ok)
		}
	}
	// The table is not linear from zero: the lowest code means 0.25ns.
	if Delay0ns25.code() != 0b0000 || Delay4ns00.code() != 0b1111 {
		t.Fatal("table endpoints do not match the register encoding")
	}
	if DelayDefault.Picoseconds() != 2000 {
		t.Fatal("zero value delay must mean 2.00ns")
	}
	if _, ok := DelayFromPicoseconds(0); ok {
		t.Fatal("0ps is not encodable")
	}
	if _, ok := DelayFromPicoseconds(300); ok {
		t.Fatal("non-multiple of 250ps is not encodable")
	}
}

func TestConfigureRGMIIID(t *testing.T) {
	bus, sim := newSim()
	var p PHY
	err := p.Configure(bus, rgmiiConfig())
	if err != nil {
		t.Fatal(err)
	}
	if p.Device().PHYAddr() != simAddr {
		t.Fatalf("resolved addr %d, want %d", p.Device().PHYAddr(), simAddr)
	}
	// Software restart issued.
	if got := sim.Reg(regCTRL); got&ctrlSWRestart == 0 {
		t.Errorf("CTRL = %#04x, want SW_RESTART set", got)
	}
	// TX FIFO depth programmed, force-link-good and SGMII left clear.
	if got := sim.Reg(regPHYCR); got != uint16(FIFODepth4)<<phycrTxFIFODepthPos {
		t.Errorf("PHYCR = %#04x, want %#04x", got, uint16(FIFODepth4)<<phycrTxFIFODepthPos)
	}
	// Both internal delays enabled for RGMII-ID.
	if got := sim.MMD(DevAddr, regRGMIICTL); got != rgmiictlRxClkDelay|rgmiictlTxClkDelay {
		t.Errorf("RGMIICTL = %#04x, want both clock delays", got)
	}
	// 2.00ns encodes as 0b0111 in each nibble.
	if got := sim.MMD(DevAddr, regRGMIIDCTL); got != 0x0077 {
		t.Errorf("RGMIIDCTL = %#04x, want 0x0077", got)
	}
	// Negotiation restarted by the generic engine.
	bmcr := sim.Reg(phy.AddrBMCR)
	if bmcr&uint16(phy.BMCRANEnable) == 0 || bmcr&uint16(phy.BMCRANRestart) == 0 {
		t.Errorf("BMCR = %#04x, want aneg enable+restart", bmcr)
	}

	mode, err := p.WaitAutoNegotiation(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	// Both ends advertise gigabit full: GBCR was written by the engine and
	// the simulated partner confirms full+half.
	if mode != phy.Link1000FDX {
		t.Fatalf("mode = %v, want %v", mode, phy.Link1000FDX)
	}
}

func TestConfigureRGMIIDelayVariants(t *testing.T) {
	for _, tc := range []struct {
		iface Interface
		want  uint16
	}{
		{InterfaceRGMII, 0},
		{InterfaceRGMIIID, rgmiictlRxClkDelay | rgmiictlTxClkDelay},
		{InterfaceRGMIIRxID, rgmiictlRxClkDelay},
		{InterfaceRGMIITxID, rgmiictlTxClkDelay},
	} {
		t.Run(tc.iface.String(), func(t *testing.T) {
			bus, sim := newSim()
			// Opposite bits strapped on: the driver must clear them.
			sim.SetMMD(DevAddr, regRGMIICTL, rgmiictlRxClkDelay|rgmiictlTxClkDelay)
			cfg := rgmiiConfig()
			cfg.Interface = tc.iface
			var p PHY
			err := p.Configure(bus, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got := sim.MMD(DevAddr, regRGMIICTL); got != tc.want {
				t.Fatalf("RGMIICTL = %#04x, want %#04x", got, tc.want)
			}
		})
	}
}

func TestConfigureStrapQuirk(t *testing.T) {
	bus, sim := newSim()
	sim.SetMMD(DevAddr, regCFG4, cfg4IntTstMode1|cfg4PortMirrorEn)
	cfg := rgmiiConfig()
	cfg.RxCtrlStrapQuirk = true
	var p PHY
	err := p.Configure(bus, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := sim.MMD(DevAddr, regCFG4)
	if got&cfg4IntTstMode1 != 0 {
		t.Errorf("CFG4 = %#04x, internal test mode must be cleared", got)
	}
	if got&cfg4PortMirrorEn == 0 {
		t.Errorf("CFG4 = %#04x, unrelated bits must be preserved", got)
	}
}

func TestConfigureStrapTestModeCorrective(t *testing.T) {
	bus, sim := newSim()
	sim.SetReg(regPHYCR, phycrSGMIIEn)
	sim.SetMMD(DevAddr, regSTRAPSTS1, strapSts1Reserved11)
	var p PHY
	err := p.Configure(bus, rgmiiConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.Reg(regPHYCR); got&phycrSGMIIEn != 0 {
		t.Errorf("PHYCR = %#04x, SGMII enable must be cleared by the strap corrective", got)
	}
}

func TestConfigureSGMII(t *testing.T) {
	bus, sim := newSim()
	sim.SetMMD(DevAddr, regRGMIICTL, rgmiictlRxClkDelay|rgmiictlTxClkDelay)
	cfg := Config{
		PHYAddr:           simAddr,
		Capabilities:      genphy.GigabitCapabilities(),
		Interface:         InterfaceSGMII,
		FIFODepth:         FIFODepth8,
		SGMIIRefClkEnable: true,
	}
	var p PHY
	err := p.Configure(bus, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.MMD(DevAddr, regSGMIICTL); got != sgmiictlRefClkEn {
		t.Errorf("SGMIICTL = %#04x, want ref clk enable", got)
	}
	cfg2 := sim.Reg(regCFG2)
	wantCfg2 := uint16(cfg2SpeedOpt10M | cfg2SGMIIAutoNegEn | cfg2SpeedOptEnhanced |
		cfg2AttemptCnt4 | cfg2IntPolarityLow)
	if cfg2 != wantCfg2 {
		t.Errorf("CFG2 = %#04x, want %#04x", cfg2, wantCfg2)
	}
	if got := sim.MMD(DevAddr, regRGMIICTL); got != 0 {
		t.Errorf("RGMIICTL = %#04x, must be zeroed in SGMII mode", got)
	}
	wantPhycr := uint16(phycrSGMIIEn | phycrMDICrossoverAuto |
		uint16(FIFODepth8)<<phycrRxFIFODepthPos | uint16(FIFODepth8)<<phycrTxFIFODepthPos)
	if got := sim.Reg(regPHYCR); got != wantPhycr {
		t.Errorf("PHYCR = %#04x, want %#04x", got, wantPhycr)
	}
	if got := sim.Reg(regBISCR); got != 0 {
		t.Errorf("BISCR = %#04x, want 0", got)
	}
	// Copper side forced before the engine restarts negotiation.
	bmcr := sim.Reg(phy.AddrBMCR)
	want := uint16(phy.BMCRANEnable | phy.BMCRFullDuplex | phy.BMCRSpeed1000 | phy.BMCRANRestart)
	if bmcr != want {
		t.Errorf("BMCR = %#04x, want %#04x", bmcr, want)
	}
}

func TestPortMirroring(t *testing.T) {
	t.Run("keep-touches-nothing", func(t *testing.T) {
		bus, sim := newSim()
		cfg := rgmiiConfig()
		cfg.PortMirroring = PortMirroringKeep
		var p PHY
		err := p.Configure(bus, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if r, w := sim.Reads(DevAddr, regCFG4), sim.Writes(DevAddr, regCFG4); r != 0 || w != 0 {
			t.Fatalf("CFG4 accessed reads=%d writes=%d, want zero accesses for Keep", r, w)
		}
	})
	t.Run("enable", func(t *testing.T) {
		bus, sim := newSim()
		cfg := rgmiiConfig()
		cfg.PortMirroring = PortMirroringEnable
		var p PHY
		err := p.Configure(bus, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := sim.MMD(DevAddr, regCFG4); got&cfg4PortMirrorEn == 0 {
			t.Fatalf("CFG4 = %#04x, mirror enable not set", got)
		}
	})
	t.Run("disable", func(t *testing.T) {
		bus, sim := newSim()
		sim.SetMMD(DevAddr, regCFG4, cfg4PortMirrorEn)
		cfg := rgmiiConfig()
		cfg.PortMirroring = PortMirroringDisable
		var p PHY
		err := p.Configure(bus, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := sim.MMD(DevAddr, regCFG4); got&cfg4PortMirrorEn != 0 {
			t.Fatalf("CFG4 = %#04x, mirror enable not cleared", got)
		}
	})
}

func TestIOMuxConfig(t *testing.T) {
	bus, sim := newSim()
	sim.SetMMD(DevAddr, regIOMUXCFG, iomuxClkODisable|0x001f)
	cfg := rgmiiConfig()
	cfg.SetIOImpedance = true
	cfg.IOImpedance = 0x0b
	cfg.ClkOutput = ClkOutputRefClk
	var p PHY
	err := p.Configure(bus, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := sim.MMD(DevAddr, regIOMUXCFG)
	if got&iomuxIOImpedanceMask != 0x0b {
		t.Errorf("IO_MUX_CFG = %#04x, impedance trim not applied", got)
	}
	if got&iomuxClkODisable != 0 {
		t.Errorf("IO_MUX_CFG = %#04x, clock output still disabled", got)
	}
	if got&iomuxClkOSelMask != 0x0c00 {
		t.Errorf("IO_MUX_CFG = %#04x, want CLK_O_SEL ref clk (0x0c)", got)
	}
}

func TestClkOutputOff(t *testing.T) {
	bus, sim := newSim()
	cfg := rgmiiConfig()
	cfg.ClkOutput = ClkOutputOff
	var p PHY
	err := p.Configure(bus, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.MMD(DevAddr, regIOMUXCFG); got&iomuxClkODisable == 0 {
		t.Fatalf("IO_MUX_CFG = %#04x, want clock output disabled", got)
	}
}

func TestConfigValidation(t *testing.T) {
	bus, _ := newSim()
	var p PHY
	err := p.Configure(bus, Config{PHYAddr: simAddr})
	if err == nil {
		t.Fatal("empty capability set must be rejected")
	}
	cfg := rgmiiConfig()
	cfg.RxDelay = Delay4ns00 + 1
	err = p.Configure(bus, cfg)
	if err == nil {
		t.Fatal("out of range delay must be rejected")
	}
	cfg = rgmiiConfig()
	cfg.SetIOImpedance = true
	cfg.IOImpedance = 32
	err = p.Configure(bus, cfg)
	if err == nil {
		t.Fatal("out of range impedance must be rejected")
	}
}

func TestConfigureNoPHY(t *testing.T) {
	var bus mdiosim.Bus
	var p PHY
	err := p.Configure(&bus, rgmiiConfig())
	if !errors.Is(err, genphy.ErrNoPHYFound) {
		t.Fatalf("got %v, want ErrNoPHYFound", err)
	}
}

func TestConfigurePropagatesCapabilityMismatch(t *testing.T) {
	bus, sim := newSim()
	sim.SetReg(phy.AddrBMSR, 0x782d) // extended status absent
	var p PHY
	err := p.Configure(bus, rgmiiConfig())
	if !errors.Is(err, genphy.ErrCapabilityMismatch) {
		t.Fatalf("got %v, want ErrCapabilityMismatch", err)
	}
}

func TestID(t *testing.T) {
	bus, _ := newSim()
	var p PHY
	err := p.Configure(bus, rgmiiConfig())
	if err != nil {
		t.Fatal(err)
	}
	id, err := p.ID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 0x2000a231 {
		t.Fatalf("id = %#08x, want 0x2000a231", id)
	}
}

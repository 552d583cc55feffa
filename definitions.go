package dp83867

// DevAddr is the MMD device address of the DP83867 vendor extended register
// space, reached through the Clause 22 REGCR/ADDAR indirection.
const DevAddr = 0x1f

// Directly addressable vendor registers.
const (
	regPHYCR = 0x10 // PHY control
	regCFG2  = 0x14 // Configuration register 2
	regBISCR = 0x16 // BIST control
	regCTRL  = 0x1f // Software reset/restart control
)

// MMD-extended vendor registers (device address DevAddr).
const (
	regCFG4      = 0x0031 // Configuration register 4
	regRGMIICTL  = 0x0032 // RGMII control
	regSTRAPSTS1 = 0x006e // Strap configuration status 1
	regRGMIIDCTL = 0x0086 // RGMII delay control
	regSGMIICTL  = 0x00d3 // SGMII control
	regIOMUXCFG  = 0x0170 // I/O configuration
)

// CTRL bits.
const (
	ctrlSWRestart = 1 << 14 // Restart without reloading straps
	ctrlSWReset   = 1 << 15 // Full reset, reloads straps
)

// PHYCR bits and fields.
const (
	phycrForceLinkGood    = 1 << 10
	phycrSGMIIEn          = 1 << 11
	phycrMDICrossoverMask = 0x0060
	phycrMDICrossoverAuto = 0b10 << 5
	phycrRxFIFODepthPos   = 12
	phycrRxFIFODepthMask  = 0x3000
	phycrTxFIFODepthPos   = 14
	phycrTxFIFODepthMask  = 0xc000
)

// CFG2 bits and fields.
const (
	cfg2SpeedOpt10M      = 1 << 6
	cfg2SGMIIAutoNegEn   = 1 << 7
	cfg2SpeedOptEnhanced = 1 << 8
	cfg2AttemptCntMask   = 0x0c00
	cfg2AttemptCnt4      = 0b10 << 10 // 4 speed-optimization attempts
	cfg2IntPolarityLow   = 1 << 13
)

// CFG4 bits.
const (
	cfg4PortMirrorEn = 1 << 0
	cfg4IntTstMode1  = 1 << 7 // Internal test mode, set by a bad strap combination
)

// RGMIICTL bits.
const (
	rgmiictlRxClkDelay = 1 << 0
	rgmiictlTxClkDelay = 1 << 1
)

// RGMIIDCTL fields.
const (
	rgmiidctlRxDelayMask = 0x000f
	rgmiidctlTxDelayPos  = 4
	rgmiidctlTxDelayMask = 0x00f0
)

// IO_MUX_CFG bits and fields.
const (
	iomuxIOImpedanceMask = 0x001f
	iomuxClkODisable     = 1 << 6
	iomuxClkOSelPos      = 8
	iomuxClkOSelMask     = 0x1f00
)

// SGMIICTL bits.
const sgmiictlRefClkEn = 1 << 14

// STRAP_STS1 bits. Bit 11 is documented reserved; it reads as one when the
// bootstrap pins sampled the erroneous factory test mode.
const strapSts1Reserved11 = 1 << 11

// Interface selects the electrical interface between MAC and PHY and, for
// RGMII, which internal clock delays the PHY provides.
type Interface uint8

const (
	InterfaceRGMII     Interface = iota // RGMII, delays provided by board traces or MAC
	InterfaceRGMIIID                    // RGMII with internal RX and TX clock delay
	InterfaceRGMIIRxID                  // RGMII with internal RX clock delay only
	InterfaceRGMIITxID                  // RGMII with internal TX clock delay only
	InterfaceSGMII                      // SGMII serialized interface
	InterfaceMII
	InterfaceGMII
)

// IsRGMII reports whether the interface is RGMII or one of its internal
// delay sub-variants.
func (i Interface) IsRGMII() bool { return i <= InterfaceRGMIITxID }

func (i Interface) String() string {
	switch i {
	case InterfaceRGMII:
		return "rgmii"
	case InterfaceRGMIIID:
		return "rgmii-id"
	case InterfaceRGMIIRxID:
		return "rgmii-rxid"
	case InterfaceRGMIITxID:
		return "rgmii-txid"
	case InterfaceSGMII:
		return "sgmii"
	case InterfaceMII:
		return "mii"
	case InterfaceGMII:
		return "gmii"
	default:
		return "unknown"
	}
}

// Delay is a discrete RGMII internal clock delay. Valid values span 0.25ns
// through 4.00ns in 0.25ns steps. The register encoding is not linear from
// zero: code 0b0000 already means 0.25ns. The zero value of Delay selects
// the 2.00ns delay most RGMII-ID designs use.
type Delay uint8

const (
	DelayDefault Delay = iota // 2.00ns
	Delay0ns25
	Delay0ns50
	Delay0ns75
	Delay1ns00
	Delay1ns25
	Delay1ns50
	Delay1ns75
	Delay2ns00
	Delay2ns25
	Delay2ns50
	Delay2ns75
	Delay3ns00
	Delay3ns25
	Delay3ns50
	Delay3ns75
	Delay4ns00
)

// DelayFromPicoseconds returns the Delay for an exact multiple of 250ps in
// the 250..4000ps range, and whether ps was representable.
func DelayFromPicoseconds(ps int) (Delay, bool) {
	if ps < 250 || ps > 4000 || ps%250 != 0 {
		return DelayDefault, false
	}
	return Delay(ps / 250), true
}

// Picoseconds returns the delay magnitude in picoseconds.
func (d Delay) Picoseconds() int {
	if d == DelayDefault {
		d = Delay2ns00
	}
	return int(d) * 250
}

// code returns the 4-bit RGMIIDCTL field encoding.
func (d Delay) code() uint16 {
	if d == DelayDefault {
		d = Delay2ns00
	}
	return uint16(d - 1)
}

// delayFromCode is the inverse of code, for decoding RGMIIDCTL fields.
func delayFromCode(code uint16) Delay {
	return Delay(code&0xf + 1)
}

// FIFODepth selects the PHY RX/TX FIFO depth. Values map directly onto the
// PHYCR field encoding; the zero value is the 3-byte minimum.
type FIFODepth uint8

const (
	FIFODepth3 FIFODepth = iota // 3 bytes/nibbles
	FIFODepth4                  // 4 bytes/nibbles
	FIFODepth6                  // 6 bytes/nibbles
	FIFODepth8                  // 8 bytes/nibbles
)

// PortMirroring directs what happens to the PHY's port mirroring function
// during configuration. The zero value leaves the strapped setting untouched
// and performs no register access at all.
type PortMirroring uint8

const (
	PortMirroringKeep PortMirroring = iota
	PortMirroringEnable
	PortMirroringDisable
)

// ClkOutput selects the CLK_OUT pin source. The zero value leaves the
// clock output configuration untouched; ClkOutputOff gates the pin.
// The remaining values map onto the IO_MUX_CFG CLK_O_SEL encoding.
type ClkOutput uint8

const (
	ClkOutputKeep ClkOutput = iota
	ClkOutputOff
	ClkOutputChannelARx // Channel A receive clock (CLK_O_SEL 0x0)
	ClkOutputChannelBRx
	ClkOutputChannelCRx
	ClkOutputChannelDRx
	ClkOutputChannelARxDiv5 // Channel A receive clock divided by 5 (0x4)
	ClkOutputChannelBRxDiv5
	ClkOutputChannelCRxDiv5
	ClkOutputChannelDRxDiv5
	ClkOutputChannelATx // Channel A transmit clock (0x8)
	ClkOutputChannelBTx
	ClkOutputChannelCTx
	ClkOutputChannelDTx
	ClkOutputRefClk // Synchronous ethernet reference clock (0xC)
)

// sel returns the CLK_O_SEL field value, already shifted into place.
func (c ClkOutput) sel() uint16 {
	return uint16(c-ClkOutputChannelARx) << iomuxClkOSelPos
}

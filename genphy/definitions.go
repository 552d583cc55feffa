package genphy

import "github.com/soypat/lneto/phy"

// Registers 0x00-0x0F as defined by IEEE 802.3 Clause 22. The first six
// (BMCR, BMSR, IDs, ANAR, ANLPAR) are covered by the lneto/phy catalog;
// below are the gigabit and MMD access registers it omits.
const (
	// AddrGBCR is the 1000BASE-T Control Register (MII_CTRL1000).
	AddrGBCR = 0x09
	// AddrGBSR is the 1000BASE-T Status Register (MII_STAT1000).
	AddrGBSR = 0x0a
	// AddrMMDCtrl is the MMD Access Control Register (REGCR).
	AddrMMDCtrl = 0x0d
	// AddrMMDData is the MMD Access Address/Data Register (ADDAR).
	AddrMMDData = 0x0e
	// AddrEStatus is the Extended Status Register.
	AddrEStatus = 0x0f
)

// GBCR represents the 1000BASE-T Control Register at address 0x09.
// Reference: IEEE 802.3 Clause 40.5.1.1
type GBCR uint16

const (
	GBCR1000Half GBCR = 0x0100 // Advertise 1000BASE-T half-duplex
	GBCR1000Full GBCR = 0x0200 // Advertise 1000BASE-T full-duplex
)

// GBSR represents the 1000BASE-T Status Register at address 0x0a.
// The link partner capability bits line up with GBCR shifted left by 2.
type GBSR uint16

const (
	GBSRIdleErrMask    GBSR = 0x00ff // Idle error counter
	GBSRLP1000Half     GBSR = 0x0400 // Link partner 1000BASE-T half-duplex capable
	GBSRLP1000Full     GBSR = 0x0800 // Link partner 1000BASE-T full-duplex capable
	GBSRRemoteRxStatus GBSR = 0x1000 // Remote receiver OK
	GBSRLocalRxStatus  GBSR = 0x2000 // Local receiver OK
	GBSRMSConfigRes    GBSR = 0x4000 // Master/slave configuration resolution
	GBSRMSConfigFault  GBSR = 0x8000 // Master/slave configuration fault
)

// EStatus represents the Extended Status Register at address 0x0f,
// valid when BMSR.ExtStatus is set.
type EStatus uint16

const (
	EStatus1000THalf EStatus = 0x1000 // 1000BASE-T half-duplex capable
	EStatus1000TFull EStatus = 0x2000 // 1000BASE-T full-duplex capable
	EStatus1000XHalf EStatus = 0x4000 // 1000BASE-X half-duplex capable
	EStatus1000XFull EStatus = 0x8000 // 1000BASE-X full-duplex capable
)

const (
	// mmdCtrlNoIncr selects the data-no-post-increment function of ADDAR.
	mmdCtrlNoIncr = 0x4000
	// mmdCtrlDevadMask masks the MMD device address field of REGCR.
	mmdCtrlDevadMask = 0x001f
)

// detectMask is the BMSR bit pattern that must read back as all ones for an
// MDIO address to be considered a live PHY (AN-capable + 10BASE-T half/full).
const detectMask = 0x1808

// Capabilities is the immutable set of media capabilities a PHY advertises
// during auto-negotiation. It is supplied once at Device construction and
// drives the ANAR and GBCR advertisement patterns.
type Capabilities struct {
	Half10    bool // 10BASE-T half-duplex
	Full10    bool // 10BASE-T full-duplex
	Half100   bool // 100BASE-TX half-duplex
	Full100   bool // 100BASE-TX full-duplex
	Half1000T bool // 1000BASE-T half-duplex
	Full1000T bool // 1000BASE-T full-duplex
	Pause     bool // Symmetric pause
	AsymPause bool // Asymmetric pause
	// The 1000BASE-X flags are folded onto the 10BASE-T advertisement bits,
	// Full1000X onto the 10-half bit and Half1000X onto the 10-full bit.
	// Do not set these for copper/SGMII designs.
	Half1000X bool
	Full1000X bool
}

// GigabitCapabilities returns the capability set for a typical
// 10/100/1000BASE-T copper PHY with symmetric pause.
func GigabitCapabilities() Capabilities {
	return Capabilities{
		Half10: true, Full10: true,
		Half100: true, Full100: true,
		Half1000T: true, Full1000T: true,
		Pause: true,
	}
}

// Gigabit reports whether 1000BASE-T is part of the capability set.
func (c Capabilities) Gigabit() bool {
	return c.Half1000T || c.Full1000T
}

// anar composes the advertisement bits managed by the capability set.
// The returned mask covers every bit the composition may set.
func (c Capabilities) anar() (adv, mask phy.ANAR) {
	mask = phy.ANAR10Half | phy.ANAR10Full | phy.ANAR100Half | phy.ANAR100Full |
		phy.ANARPause | phy.ANARPauseAsym
	if c.Half10 || c.Full1000X {
		adv |= phy.ANAR10Half
	}
	if c.Full10 || c.Half1000X {
		adv |= phy.ANAR10Full
	}
	if c.Half100 {
		adv |= phy.ANAR100Half
	}
	if c.Full100 {
		adv |= phy.ANAR100Full
	}
	if c.Pause {
		adv |= phy.ANARPause
	}
	if c.AsymPause {
		adv |= phy.ANARPauseAsym
	}
	return adv, mask
}

// gbcr composes the 1000BASE-T control advertisement bits.
func (c Capabilities) gbcr() (adv, mask GBCR) {
	mask = GBCR1000Half | GBCR1000Full
	if c.Half1000T {
		adv |= GBCR1000Half
	}
	if c.Full1000T {
		adv |= GBCR1000Full
	}
	return adv, mask
}

// Package mdiosim simulates a Clause 22 MDIO management bus for driver tests.
// Simulated PHYs hold direct and MMD-extended register banks, emulate the
// REGCR/ADDAR indirection state machine, count accesses per register and can
// queue one-shot read values to model latched status bits.
package mdiosim

import "errors"

// Register addresses of the Clause 22 MMD indirection proxies.
const (
	regMMDCtrl = 0x0d
	regMMDData = 0x0e

	mmdCtrlFnMask = 0xc000
	mmdCtrlFnData = 0x4000
	mmdDevadMask  = 0x001f
)

// defaultBMSR is a link-down, autoneg-capable 10/100 status with extended
// status present, enough to pass address detection out of the box.
const defaultBMSR = 0x7909

var errClause45 = errors.New("mdiosim: clause 45 framing not supported")

// Bus is a simulated MDIO bus holding up to 32 PHYs. Reads from addresses
// with no attached PHY float high (0xffff), as on real hardware.
// Bus implements phy.MDIOBus.
type Bus struct {
	phys [32]*PHY
}

// Attach places p at the given bus address.
func (b *Bus) Attach(addr uint8, p *PHY) {
	b.phys[addr] = p
}

// Read implements the MDIOBus read operation.
func (b *Bus) Read(phyAddr, devAddr uint8, regAddr uint16) (uint16, error) {
	if devAddr != 0 {
		return 0, errClause45
	}
	p := b.phys[phyAddr&31]
	if p == nil {
		return 0xffff, nil
	}
	return p.read(regAddr), nil
}

// Write implements the MDIOBus write operation.
func (b *Bus) Write(phyAddr, devAddr uint8, regAddr, value uint16) error {
	if devAddr != 0 {
		return errClause45
	}
	p := b.phys[phyAddr&31]
	if p != nil {
		p.write(regAddr, value)
	}
	return nil
}

// PHY is one simulated transceiver's register state.
type PHY struct {
	regs    [32]uint16
	mmd     map[uint32]uint16
	queued  map[uint16][]uint16
	reads   map[uint32]int
	writes  map[uint32]int
	mmdCtrl uint16
	mmdAddr uint16
}

// NewPHY returns a PHY whose BMSR reports a link-down 10/100 autoneg-capable
// device with extended status, which satisfies the standard detect pattern.
func NewPHY() *PHY {
	p := &PHY{
		mmd:    make(map[uint32]uint16),
		queued: make(map[uint16][]uint16),
		reads:  make(map[uint32]int),
		writes: make(map[uint32]int),
	}
	p.regs[0x01] = defaultBMSR
	return p
}

func key(devad uint8, reg uint16) uint32 {
	return uint32(devad)<<16 | uint32(reg)
}

// SetReg sets a directly addressable register value.
func (p *PHY) SetReg(reg uint8, v uint16) { p.regs[reg&31] = v }

// Reg returns a directly addressable register value without counting.
func (p *PHY) Reg(reg uint8) uint16 { return p.regs[reg&31] }

// SetMMD sets an MMD-extended register value.
func (p *PHY) SetMMD(devad uint8, reg uint16, v uint16) {
	p.mmd[key(devad, reg)] = v
}

// MMD returns an MMD-extended register value without counting.
func (p *PHY) MMD(devad uint8, reg uint16) uint16 {
	return p.mmd[key(devad, reg)]
}

// QueueReads queues one-shot values returned by successive reads of a direct
// register before it falls back to its stored value. Used to model latched
// status bits that change across reads.
func (p *PHY) QueueReads(reg uint8, vals ...uint16) {
	r := uint16(reg & 31)
	p.queued[r] = append(p.queued[r], vals...)
}

// Reads returns how many times the register was read. Use devad 0 for
// directly addressable registers. Accesses that reach an MMD register
// through the indirection count against the MMD register, not the proxies.
func (p *PHY) Reads(devad uint8, reg uint16) int { return p.reads[key(devad, reg)] }

// Writes returns how many times the register was written. Same addressing
// rules as Reads.
func (p *PHY) Writes(devad uint8, reg uint16) int { return p.writes[key(devad, reg)] }

func (p *PHY) read(reg uint16) uint16 {
	reg &= 31
	switch reg {
	case regMMDCtrl:
		p.reads[key(0, reg)]++
		return p.mmdCtrl
	case regMMDData:
		if p.mmdCtrl&mmdCtrlFnMask == mmdCtrlFnData {
			devad := uint8(p.mmdCtrl & mmdDevadMask)
			p.reads[key(devad, p.mmdAddr)]++
			return p.mmd[key(devad, p.mmdAddr)]
		}
		p.reads[key(0, reg)]++
		return p.mmdAddr
	}
	p.reads[key(0, reg)]++
	if q := p.queued[reg]; len(q) > 0 {
		v := q[0]
		p.queued[reg] = q[1:]
		return v
	}
	return p.regs[reg]
}

func (p *PHY) write(reg, value uint16) {
	reg &= 31
	switch reg {
	case regMMDCtrl:
		p.writes[key(0, reg)]++
		p.mmdCtrl = value
		return
	case regMMDData:
		if p.mmdCtrl&mmdCtrlFnMask == mmdCtrlFnData {
			devad := uint8(p.mmdCtrl & mmdDevadMask)
			p.writes[key(devad, p.mmdAddr)]++
			p.mmd[key(devad, p.mmdAddr)] = value
			return
		}
		p.writes[key(0, reg)]++
		p.mmdAddr = value
		return
	}
	p.writes[key(0, reg)]++
	p.regs[reg] = value
}

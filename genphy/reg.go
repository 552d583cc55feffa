package genphy

// RegAddr identifies a PHY register and the access path used to reach it.
// The zero devad means the register is directly addressable in the Clause 22
// register space (standard or vendor-reserved); a nonzero devad means the
// register lives in an MMD-extended space and is only reachable through the
// REGCR/ADDAR indirection. The two paths must never be mixed for one address.
type RegAddr struct {
	devad uint8
	num   uint16
}

// DirectReg returns the address of a directly addressable register (0x00-0x1f).
func DirectReg(num uint8) RegAddr {
	return RegAddr{num: uint16(num)}
}

// MMDReg returns the address of an MMD-extended register qualified by a
// nonzero MMD device address.
func MMDReg(devad uint8, num uint16) RegAddr {
	if devad == 0 {
		panic("genphy: MMD register requires nonzero device address")
	}
	return RegAddr{devad: devad, num: num}
}

// IsMMD reports whether the register requires indirect MMD access.
func (a RegAddr) IsMMD() bool { return a.devad != 0 }

// Reg is a local mirror of a 16-bit PHY register. All bit manipulation
// happens on the mirror; hardware is only touched by Device.LoadReg,
// Device.StoreReg and Device.ReloadReg. This keeps write-only-if-changed
// sequences honest: a mirror never re-reads hardware behind the caller's back.
type Reg struct {
	addr RegAddr
	val  uint16
}

// NewReg returns a zero-initialized mirror of the register at addr.
// No hardware access is performed.
func NewReg(addr RegAddr) Reg {
	return Reg{addr: addr}
}

// Addr returns the register address the mirror is bound to.
func (r Reg) Addr() RegAddr { return r.addr }

// Value returns the mirror's current value.
func (r Reg) Value() uint16 { return r.val }

// Set replaces the mirror's value.
func (r *Reg) Set(v uint16) { r.val = v }

// SetBits sets every bit in mask.
func (r *Reg) SetBits(mask uint16) { r.val |= mask }

// ClearBits clears every bit in mask.
func (r *Reg) ClearBits(mask uint16) { r.val &^= mask }

// ReplaceBits clears mask and ors in v. v must already be shifted to the
// mask's position.
func (r *Reg) ReplaceBits(mask, v uint16) {
	r.val = r.val&^mask | v&mask
}

// IsSet reports whether any bit in mask is set. Identical to MatchesAny;
// named for single-bit masks.
func (r Reg) IsSet(mask uint16) bool { return r.val&mask != 0 }

// MatchesAll reports whether every bit in mask is set.
func (r Reg) MatchesAll(mask uint16) bool { return r.val&mask == mask }

// MatchesAny reports whether any bit in mask is set.
func (r Reg) MatchesAny(mask uint16) bool { return r.val&mask != 0 }

// LoadReg reads the register at addr and returns a mirror holding the value
// read (read-through construction).
func (d *Device) LoadReg(addr RegAddr) (Reg, error) {
	v, err := d.ReadRegister(addr)
	return Reg{addr: addr, val: v}, err
}

// ReloadReg re-reads the mirror's register from hardware into the mirror.
func (d *Device) ReloadReg(r *Reg) error {
	v, err := d.ReadRegister(r.addr)
	if err == nil {
		r.val = v
	}
	return err
}

// StoreReg flushes the mirror's value to its register (write-through).
func (d *Device) StoreReg(r Reg) error {
	return d.WriteRegister(r.addr, r.val)
}

// ReadRegister reads a register through whichever access path its address
// requires. Intended for model-specific drivers layered on the engine.
func (d *Device) ReadRegister(a RegAddr) (uint16, error) {
	if a.IsMMD() {
		return d.ReadMMD(a.devad, a.num)
	}
	return d.rread(a.num)
}

// WriteRegister writes a register through whichever access path its address
// requires. Intended for model-specific drivers layered on the engine.
func (d *Device) WriteRegister(a RegAddr, value uint16) error {
	if a.IsMMD() {
		return d.WriteMMD(a.devad, a.num, value)
	}
	return d.rwrite(a.num, value)
}

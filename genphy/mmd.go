package genphy

import "log/slog"

// MMD-extended registers are reached through two Clause 22 proxy registers,
// REGCR (0x0d) and ADDAR (0x0e):
//
//  1. write the MMD device address into REGCR (function = address)
//  2. write the target register number into ADDAR
//  3. write devad|no-post-increment into REGCR, switching ADDAR to data mode
//
// After step 3, ADDAR reads and writes proxy the extended register directly.
// The protocol is synchronous; no retries are attempted.
func (d *Device) mmdStartIndirect(devad uint8, regnum uint16) error {
	err := d.rwrite(AddrMMDCtrl, uint16(devad))
	if err != nil {
		return err
	}
	err = d.rwrite(AddrMMDData, regnum)
	if err != nil {
		return err
	}
	return d.rwrite(AddrMMDCtrl, uint16(devad)|mmdCtrlNoIncr)
}

// ReadMMD reads an MMD-extended register through the Clause 22 indirection.
func (d *Device) ReadMMD(devad uint8, regnum uint16) (uint16, error) {
	err := d.mmdStartIndirect(devad, regnum)
	if err != nil {
		return 0, err
	}
	v, err := d.rread(AddrMMDData)
	if err == nil {
		d.trace("mmd:read", slog.Uint64("devad", uint64(devad)),
			slog.Uint64("reg", uint64(regnum)), slog.Uint64("val", uint64(v)))
	}
	return v, err
}

// WriteMMD writes an MMD-extended register through the Clause 22 indirection.
func (d *Device) WriteMMD(devad uint8, regnum uint16, value uint16) error {
	err := d.mmdStartIndirect(devad, regnum)
	if err != nil {
		return err
	}
	d.trace("mmd:write", slog.Uint64("devad", uint64(devad)),
		slog.Uint64("reg", uint64(regnum)), slog.Uint64("val", uint64(value)))
	return d.rwrite(AddrMMDData, value)
}

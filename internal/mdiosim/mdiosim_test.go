package mdiosim

import "testing"

func TestDirectAccess(t *testing.T) {
	var bus Bus
	p := NewPHY()
	bus.Attach(5, p)
	v, err := bus.Read(5, 0, 0x01)
	if err != nil {
		t.Fatal(err)
	} else if v != defaultBMSR {
		t.Fatalf("BMSR = %#04x, want %#04x", v, defaultBMSR)
	}
	// Unattached addresses float high.
	v, err = bus.Read(6, 0, 0x01)
	if err != nil || v != 0xffff {
		t.Fatalf("floating read = %#04x, %v", v, err)
	}
	err = bus.Write(5, 0, 0x04, 0x01e1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Reg(0x04) != 0x01e1 {
		t.Fatal("write did not stick")
	}
	if p.Reads(0, 0x01) != 1 || p.Writes(0, 0x04) != 1 {
		t.Fatal("access counters off")
	}
}

func TestMMDIndirection(t *testing.T) {
	var bus Bus
	p := NewPHY()
	bus.Attach(0, p)
	const devad, reg = 0x1f, 0x0170

	// The Clause 22 indirection sequence: devad, register number, then
	// devad with the data function selected.
	bus.Write(0, 0, regMMDCtrl, devad)
	bus.Write(0, 0, regMMDData, reg)
	bus.Write(0, 0, regMMDCtrl, devad|mmdCtrlFnData)
	bus.Write(0, 0, regMMDData, 0xbeef)
	if got := p.MMD(devad, reg); got != 0xbeef {
		t.Fatalf("MMD register = %#04x, want 0xbeef", got)
	}
	if p.Writes(devad, reg) != 1 {
		t.Fatal("data write not counted against the MMD register")
	}

	// Leaving data mode makes ADDAR latch addresses again.
	bus.Write(0, 0, regMMDCtrl, devad)
	bus.Write(0, 0, regMMDData, 0x0032)
	bus.Write(0, 0, regMMDCtrl, devad|mmdCtrlFnData)
	v, _ := bus.Read(0, 0, regMMDData)
	if v != 0 {
		t.Fatalf("unset MMD register = %#04x, want 0", v)
	}
	if p.Reads(devad, 0x0032) != 1 {
		t.Fatal("data read not counted against the MMD register")
	}
}

func TestQueuedReads(t *testing.T) {
	var bus Bus
	p := NewPHY()
	bus.Attach(0, p)
	p.SetReg(0x01, 0x792d)
	p.QueueReads(0x01, 0x7909)
	v, _ := bus.Read(0, 0, 0x01)
	if v != 0x7909 {
		t.Fatalf("first read = %#04x, want queued 0x7909", v)
	}
	v, _ = bus.Read(0, 0, 0x01)
	if v != 0x792d {
		t.Fatalf("second read = %#04x, want steady 0x792d", v)
	}
}

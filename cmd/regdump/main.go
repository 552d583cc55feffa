// regdump decodes raw MII register values captured from a PHY, printing the
// named bits of the standard Clause 22 registers. Handy for making sense of
// register dumps pasted from a serial console or `mii-tool -vv`.
//
// Usage:
//
//	go run ./cmd/regdump 0=0x1140 1=0x796d 4=0x01e1 5=0xc1e1 9=0x0200 10=0x7800
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/soypat/dp83867/genphy"
	"github.com/soypat/lneto/phy"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: regdump reg=value [reg=value ...]")
		fmt.Fprintln(os.Stderr, "registers and values in decimal or 0x hex")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	for _, arg := range flag.Args() {
		reg, val, err := parsePair(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "regdump: %q: %v\n", arg, err)
			os.Exit(1)
		}
		fmt.Printf("reg 0x%02x = 0x%04x%s\n", reg, val, decode(reg, val))
	}
}

func parsePair(s string) (reg uint64, val uint64, err error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, fmt.Errorf("want reg=value")
	}
	reg, err = strconv.ParseUint(k, 0, 16)
	if err == nil {
		val, err = strconv.ParseUint(v, 0, 16)
	}
	if err == nil && reg > 31 {
		err = fmt.Errorf("register out of Clause 22 range")
	}
	return reg, val, err
}

type bit struct {
	mask uint16
	name string
}

var decoders = map[uint64]struct {
	name string
	bits []bit
}{
	phy.AddrBMCR: {"BMCR", []bit{
		{uint16(phy.BMCRReset), "reset"},
		{uint16(phy.BMCRLoopback), "loopback"},
		{uint16(phy.BMCRSpeed100), "speed100"},
		{uint16(phy.BMCRANEnable), "aneg-enable"},
		{uint16(phy.BMCRPowerDown), "power-down"},
		{uint16(phy.BMCRIsolate), "isolate"},
		{uint16(phy.BMCRANRestart), "aneg-restart"},
		{uint16(phy.BMCRFullDuplex), "full-duplex"},
		{uint16(phy.BMCRSpeed1000), "speed1000"},
	}},
	phy.AddrBMSR: {"BMSR", []bit{
		{uint16(phy.BMSR100Full), "100-full"},
		{uint16(phy.BMSR100Half), "100-half"},
		{uint16(phy.BMSR10Full), "10-full"},
		{uint16(phy.BMSR10Half), "10-half"},
		{uint16(phy.BMSRExtStatus), "ext-status"},
		{uint16(phy.BMSRANComplete), "aneg-complete"},
		{uint16(phy.BMSRRemoteFault), "remote-fault"},
		{uint16(phy.BMSRANCap), "aneg-capable"},
		{uint16(phy.BMSRLinkStatus), "link-up"},
		{uint16(phy.BMSRJabber), "jabber"},
		{uint16(phy.BMSRExtCap), "ext-regs"},
	}},
	phy.AddrANAR: {"ANAR", anarBits},
	phy.AddrANLPAR: {"ANLPAR", append([]bit{
		{uint16(phy.ANARNextPage), "next-page"},
		{uint16(phy.ANARAck), "ack"},
	}, anarBits...)},
	genphy.AddrGBCR: {"1000BASE-T control", []bit{
		{uint16(genphy.GBCR1000Full), "adv-1000-full"},
		{uint16(genphy.GBCR1000Half), "adv-1000-half"},
	}},
	genphy.AddrGBSR: {"1000BASE-T status", []bit{
		{uint16(genphy.GBSRMSConfigFault), "ms-config-fault"},
		{uint16(genphy.GBSRLocalRxStatus), "local-rx-ok"},
		{uint16(genphy.GBSRRemoteRxStatus), "remote-rx-ok"},
		{uint16(genphy.GBSRLP1000Full), "lp-1000-full"},
		{uint16(genphy.GBSRLP1000Half), "lp-1000-half"},
	}},
	genphy.AddrEStatus: {"extended status", []bit{
		{uint16(genphy.EStatus1000XFull), "1000x-full"},
		{uint16(genphy.EStatus1000XHalf), "1000x-half"},
		{uint16(genphy.EStatus1000TFull), "1000t-full"},
		{uint16(genphy.EStatus1000THalf), "1000t-half"},
	}},
}

var anarBits = []bit{
	{uint16(phy.ANARPauseAsym), "asym-pause"},
	{uint16(phy.ANARPause), "pause"},
	{uint16(phy.ANAR100BaseT4), "100-t4"},
	{uint16(phy.ANAR100Full), "100-full"},
	{uint16(phy.ANAR100Half), "100-half"},
	{uint16(phy.ANAR10Full), "10-full"},
	{uint16(phy.ANAR10Half), "10-half"},
}

func decode(reg, val uint64) string {
	d, ok := decoders[reg]
	if !ok {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("  " + d.name + ":")
	any := false
	for _, b := range d.bits {
		if uint16(val)&b.mask != 0 {
			sb.WriteString(" " + b.name)
			any = true
		}
	}
	if !any {
		sb.WriteString(" (none)")
	}
	return sb.String()
}

package desc

import (
	"fmt"
	"strings"
)

// Kind selects the payload interpretation of a descriptor.
type Kind int

// Kind values.
const (
	KindTx Kind = iota
	KindRx
)

func (k Kind) String() string {
	if k == KindRx {
		return "RX"
	}
	return "TX"
}

func flag(b *strings.Builder, v bool, name string) {
	if v {
		b.WriteString(" ")
		b.WriteString(name)
	}
}

// Format renders the descriptor as one diagnostic line.
// Payload fields are rendered according to kind.
func (d *Desc) Format(kind Kind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "len=%d\taddr=%08x next=%d", d.PktLen(), d.PktAddr(), d.NextIdx())
	flag(&b, d.Done(), "DONE")
	flag(&b, d.Dropped(), "DROPPED")
	flag(&b, d.Nls(), "NLS")
	if v := Reserved0.Get(d); v != 0 {
		fmt.Fprintf(&b, " unknown0=%08x", v)
	}
	if v := Reserved1.Get(d); v != 0 {
		fmt.Fprintf(&b, " unknown1=%04x", v)
	}
	if v := Reserved2.Get(d); v != 0 {
		fmt.Fprintf(&b, " unknown2=%04x", v)
	}
	b.WriteString(" ")

	switch kind {
	case KindRx:
		rx := d.Rx()
		fmt.Fprintf(&b, "crsn=%d sport=%d ppe=%d", rx.Crsn(), rx.Sport(), rx.PpeEntry())
		flag(&b, rx.Ip6(), "IP6")
		flag(&b, rx.Ip4(), "IP4")
		flag(&b, rx.Ip4f(), "IP4F")
		flag(&b, rx.Tack(), "TACK")
		flag(&b, rx.L2vld(), "L2VLD")
		flag(&b, rx.L4f(), "L4F")
		flag(&b, rx.Untag(), "UNTAG")
		if v := rx.SpTag(); v != 0 {
			fmt.Fprintf(&b, " sp_tag=%04x", v)
		}
		if v := rx.Tci(); v != 0 {
			fmt.Fprintf(&b, " tci=%04x", v)
		}
		if v := rx.Unknown0(); v != 0 {
			fmt.Fprintf(&b, " unknown0=%08x", v)
		}
		if v := RxReserved5.Get(d); v != 0 {
			fmt.Fprintf(&b, " unknown1=%02x", v)
		}
		if v := RxReserved6.Get(d); v != 0 {
			fmt.Fprintf(&b, " unknown2=%08x", v)
		}
	default:
		tx := d.Tx()
		fmt.Fprintf(&b, "fport=%d", tx.Fport())
		flag(&b, tx.Oam(), "OAM")
		flag(&b, tx.Ico(), "ICO")
		flag(&b, tx.Sco(), "SCO")
		flag(&b, tx.Tco(), "TCO")
		flag(&b, tx.Uco(), "UCO")
		if v := tx.Channel(); v != 0 {
			fmt.Fprintf(&b, " channel=%d", v)
		}
		if v := tx.Queue(); v != 0 {
			fmt.Fprintf(&b, " queue=%d", v)
		}
		if v := tx.SpTag(); v != 0 {
			fmt.Fprintf(&b, " sp_tag=%04x", v)
		}
		if v := tx.UdfPmap(); v != 0 {
			fmt.Fprintf(&b, " udf_pmap=%02x", v)
		}
		if tx.VlanEn() {
			fmt.Fprintf(&b, " vlan_type=%02x", uint8(tx.VlanType()))
		}
		if v := tx.VlanTag(); v != 0 {
			fmt.Fprintf(&b, " vlan_tag=%04x", v)
		}
	}
	return b.String()
}

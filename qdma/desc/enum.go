package desc

import "strconv"

// Fport is a forwarding port selector in a TX descriptor.
type Fport uint8

// Fport values.
const (
	FportLoopback       Fport = 0
	FportLAN            Fport = 1
	FportWAN            Fport = 2
	FportPPE            Fport = 4
	FportQdmaLoopback   Fport = 5
	FportQdmaHwLoopback Fport = 6
	FportDrop           Fport = 7
)

var fportNames = map[Fport]string{
	FportLoopback:       "loopback",
	FportLAN:            "lan",
	FportWAN:            "wan",
	FportPPE:            "ppe",
	FportQdmaLoopback:   "qdma-loopback",
	FportQdmaHwLoopback: "qdma-hw-loopback",
	FportDrop:           "drop",
}

func (p Fport) String() string {
	if s, ok := fportNames[p]; ok {
		return s
	}
	return strconv.Itoa(int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Fport) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// It accepts a name or a number.
func (p *Fport) UnmarshalText(text []byte) error {
	for v, name := range fportNames {
		if name == string(text) {
			*p = v
			return nil
		}
	}
	n, e := strconv.ParseUint(string(text), 10, 3)
	if e != nil {
		return e
	}
	*p = Fport(n)
	return nil
}

// VlanType is the TPID of an inserted VLAN header.
type VlanType uint8

// VlanType values.
const (
	Vlan8100    VlanType = 0
	Vlan88A8    VlanType = 1
	Vlan9100    VlanType = 2
	VlanUnknown VlanType = 3
)

// EtherType returns the TPID, or 0 for VlanUnknown.
func (t VlanType) EtherType() uint16 {
	switch t {
	case Vlan8100:
		return 0x8100
	case Vlan88A8:
		return 0x88A8
	case Vlan9100:
		return 0x9100
	}
	return 0
}

func (t VlanType) String() string {
	if et := t.EtherType(); et != 0 {
		return strconv.FormatUint(uint64(et), 16)
	}
	return "unknown"
}

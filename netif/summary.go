package netif

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// EthHeaderLen is the length of an untagged Ethernet header.
const EthHeaderLen = 14

// Summary returns a one-line description of an Ethernet frame for logging.
func Summary(frame []byte) string {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Lazy|gopacket.NoCopy)
	eth, _ := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if eth == nil {
		return fmt.Sprintf("malformed len=%d", len(frame))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s>%s %04x", eth.SrcMAC, eth.DstMAC, uint16(eth.EthernetType))
	for _, l := range pkt.Layers() {
		switch l.LayerType() {
		case layers.LayerTypeEthernet, gopacket.LayerTypePayload, gopacket.LayerTypeDecodeFailure:
			continue
		}
		b.WriteString(" ")
		b.WriteString(l.LayerType().String())
	}
	fmt.Fprintf(&b, " len=%d", len(frame))
	return b.String()
}

package desc

// TxView accesses the TX payload of a descriptor.
type TxView struct {
	d *Desc
}

func (v TxView) SpTag() uint16 { return uint16(TxSpTag.Get(v.d)) }
func (v TxView) SetSpTag(x uint16) { TxSpTag.Set(v.d, uint32(x)) }
func (v TxView) Oam() bool { return TxOam.GetBool(v.d) }
func (v TxView) SetOam(x bool) { TxOam.SetBool(v.d, x) }
func (v TxView) Channel() uint8 { return uint8(TxChannel.Get(v.d)) }
func (v TxView) SetChannel(x uint8) { TxChannel.Set(v.d, uint32(x)) }
func (v TxView) Queue() uint8 { return uint8(TxQueue.Get(v.d)) }
func (v TxView) SetQueue(x uint8) { TxQueue.Set(v.d, uint32(x)) }
func (v TxView) Ico() bool { return TxIco.GetBool(v.d) }
func (v TxView) SetIco(x bool) { TxIco.SetBool(v.d, x) }
func (v TxView) Uco() bool { return TxUco.GetBool(v.d) }
func (v TxView) SetUco(x bool) { TxUco.SetBool(v.d, x) }
func (v TxView) Tco() bool { return TxTco.GetBool(v.d) }
func (v TxView) SetTco(x bool) { TxTco.SetBool(v.d, x) }
func (v TxView) Sco() bool { return TxSco.GetBool(v.d) }
func (v TxView) SetSco(x bool) { TxSco.SetBool(v.d, x) }
func (v TxView) UdfPmap() uint8 { return uint8(TxUdfPmap.Get(v.d)) }
func (v TxView) SetUdfPmap(x uint8) { TxUdfPmap.Set(v.d, uint32(x)) }
func (v TxView) Fport() Fport { return Fport(TxFport.Get(v.d)) }
func (v TxView) SetFport(x Fport) { TxFport.Set(v.d, uint32(x)) }
func (v TxView) VlanEn() bool { return TxVlanEn.GetBool(v.d) }
func (v TxView) SetVlanEn(x bool) { TxVlanEn.SetBool(v.d, x) }
func (v TxView) VlanType() VlanType { return VlanType(TxVlanType.Get(v.d)) }
func (v TxView) SetVlanType(x VlanType) { TxVlanType.Set(v.d, uint32(x)) }
func (v TxView) VlanTag() uint16 { return uint16(TxVlanTag.Get(v.d)) }
func (v TxView) SetVlanTag(x uint16) { TxVlanTag.Set(v.d, uint32(x)) }

// RxView accesses the RX payload of a descriptor.
type RxView struct {
	d *Desc
}

func (v RxView) Unknown0() uint32 { return RxUnknown0.Get(v.d) }
func (v RxView) Ip6() bool { return RxIp6.GetBool(v.d) }
func (v RxView) SetIp6(x bool) { RxIp6.SetBool(v.d, x) }
func (v RxView) Ip4() bool { return RxIp4.GetBool(v.d) }
func (v RxView) SetIp4(x bool) { RxIp4.SetBool(v.d, x) }
func (v RxView) Ip4f() bool { return RxIp4f.GetBool(v.d) }
func (v RxView) SetIp4f(x bool) { RxIp4f.SetBool(v.d, x) }
func (v RxView) Tack() bool { return RxTack.GetBool(v.d) }
func (v RxView) SetTack(x bool) { RxTack.SetBool(v.d, x) }
func (v RxView) L2vld() bool { return RxL2vld.GetBool(v.d) }
func (v RxView) SetL2vld(x bool) { RxL2vld.SetBool(v.d, x) }
func (v RxView) L4f() bool { return RxL4f.GetBool(v.d) }
func (v RxView) SetL4f(x bool) { RxL4f.SetBool(v.d, x) }
func (v RxView) Sport() uint8 { return uint8(RxSport.Get(v.d)) }
func (v RxView) SetSport(x uint8) { RxSport.Set(v.d, uint32(x)) }
func (v RxView) Crsn() uint8 { return uint8(RxCrsn.Get(v.d)) }
func (v RxView) SetCrsn(x uint8) { RxCrsn.Set(v.d, uint32(x)) }
func (v RxView) PpeEntry() uint16 { return uint16(RxPpeEntry.Get(v.d)) }
func (v RxView) SetPpeEntry(x uint16) { RxPpeEntry.Set(v.d, uint32(x)) }
func (v RxView) Untag() bool { return RxUntag.GetBool(v.d) }
func (v RxView) SetUntag(x bool) { RxUntag.SetBool(v.d, x) }
func (v RxView) SpTag() uint16 { return uint16(RxSpTag.Get(v.d)) }
func (v RxView) SetSpTag(x uint16) { RxSpTag.Set(v.d, uint32(x)) }
func (v RxView) Tci() uint16 { return uint16(RxTci.Get(v.d)) }
func (v RxView) SetTci(x uint16) { RxTci.Set(v.d, uint32(x)) }

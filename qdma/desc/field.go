package desc

import "fmt"

// Field is a bit range within one descriptor word.
type Field struct {
	Name  string
	Word  uint8
	Shift uint8
	Width uint8
}

// Mask returns the in-word mask of the field.
func (f Field) Mask() uint32 {
	return uint32((uint64(1)<<f.Width - 1) << f.Shift)
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	return uint32(uint64(1)<<f.Width - 1)
}

// Get extracts the field value.
func (f Field) Get(d *Desc) uint32 {
	return (d[f.Word] & f.Mask()) >> f.Shift
}

// Set stores v into the field, truncated to the field width.
// Bits outside the field are not changed.
func (f Field) Set(d *Desc, v uint32) {
	m := f.Mask()
	d[f.Word] = d[f.Word]&^m | (v<<f.Shift)&m
}

// GetBool extracts a single-bit field.
func (f Field) GetBool(d *Desc) bool {
	return f.Get(d) != 0
}

// SetBool stores a single-bit field.
func (f Field) SetBool(d *Desc, v bool) {
	var u uint32
	if v {
		u = 1
	}
	f.Set(d, u)
}

func (f Field) String() string {
	if f.Width == 1 {
		return fmt.Sprintf("%s(w%d[%d])", f.Name, f.Word, f.Shift)
	}
	return fmt.Sprintf("%s(w%d[%d:%d])", f.Name, f.Word, f.Shift+f.Width-1, f.Shift)
}

// Common fields.
var (
	Reserved0 = Field{"reserved0", 0, 0, 32}
	Done      = Field{"done", 1, 31, 1}
	Dropped   = Field{"dropped", 1, 30, 1}
	Nls       = Field{"nls", 1, 29, 1}
	Reserved1 = Field{"reserved1", 1, 16, 13}
	PktLen    = Field{"pkt_len", 1, 0, 16}
	PktAddr   = Field{"pkt_addr", 2, 0, 32}
	Reserved2 = Field{"reserved2", 3, 12, 20}
	NextIdx   = Field{"next_idx", 3, 0, 12}
)

// TX variant fields.
var (
	TxReserved4 = Field{"tx_reserved4", 4, 28, 4}
	TxSpTag     = Field{"sp_tag", 4, 12, 16}
	TxOam       = Field{"oam", 4, 11, 1}
	TxChannel   = Field{"channel", 4, 3, 8}
	TxQueue     = Field{"queue", 4, 0, 3}
	TxIco       = Field{"ico", 5, 31, 1}
	TxUco       = Field{"uco", 5, 30, 1}
	TxTco       = Field{"tco", 5, 29, 1}
	TxSco       = Field{"sco", 5, 28, 1}
	TxUdfPmap   = Field{"udf_pmap", 5, 22, 6}
	TxFport     = Field{"fport", 5, 19, 3}
	TxVlanEn    = Field{"vlan_en", 5, 18, 1}
	TxVlanType  = Field{"vlan_type", 5, 16, 2}
	TxVlanTag   = Field{"vlan_tag", 5, 0, 16}
	TxReserved6 = Field{"tx_reserved6", 6, 0, 32}
	TxReserved7 = Field{"tx_reserved7", 7, 0, 32}
)

// RX variant fields.
var (
	RxUnknown0  = Field{"unknown0", 4, 0, 32}
	RxReserved5 = Field{"rx_reserved5", 5, 29, 3}
	RxIp6       = Field{"ip6", 5, 28, 1}
	RxIp4       = Field{"ip4", 5, 27, 1}
	RxIp4f      = Field{"ip4f", 5, 26, 1}
	RxTack      = Field{"tack", 5, 25, 1}
	RxL2vld     = Field{"l2vld", 5, 24, 1}
	RxL4f       = Field{"l4f", 5, 23, 1}
	RxSport     = Field{"sport", 5, 19, 4}
	RxCrsn      = Field{"crsn", 5, 14, 5}
	RxPpeEntry  = Field{"ppe_entry", 5, 0, 14}
	RxReserved6 = Field{"rx_reserved6", 6, 1, 31}
	RxUntag     = Field{"untag", 6, 0, 1}
	RxSpTag     = Field{"sp_tag", 7, 16, 16}
	RxTci       = Field{"tci", 7, 0, 16}
)

// Field tables, each covering its words completely.
var (
	CommonFields = []Field{Reserved0, Done, Dropped, Nls, Reserved1, PktLen, PktAddr, Reserved2, NextIdx}
	TxFields     = []Field{TxReserved4, TxSpTag, TxOam, TxChannel, TxQueue, TxIco, TxUco, TxTco, TxSco,
		TxUdfPmap, TxFport, TxVlanEn, TxVlanType, TxVlanTag, TxReserved6, TxReserved7}
	RxFields = []Field{RxUnknown0, RxReserved5, RxIp6, RxIp4, RxIp4f, RxTack, RxL2vld, RxL4f, RxSport,
		RxCrsn, RxPpeEntry, RxReserved6, RxUntag, RxSpTag, RxTci}
)

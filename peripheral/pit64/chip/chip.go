// Package chip describes the PIT64B register block.
package chip

// Control register bits.
const (
	CR_START uint32 = 1 << 0
	CR_SWRST uint32 = 1 << 8
)

// Mode register bits.
const (
	MR_CONT  uint32 = 1 << 0
	MR_SGCLK uint32 = 1 << 3
	MR_SMOD  uint32 = 1 << 4
	MR_PRES  uint32 = 0xF << 8
)

// Interrupt enable/disable/mask/status bits.
const (
	IRQ_PERIOD uint32 = 1 << 0
	IRQ_OVRE   uint32 = 1 << 1
	IRQ_SECE   uint32 = 1 << 4
)

// Layout gives the byte offset of each register from the block base.
type Layout struct {
	CR   uint32 `yaml:"cr"`
	MR   uint32 `yaml:"mr"`
	LSBR uint32 `yaml:"lsbPeriod"`
	MSBR uint32 `yaml:"msbPeriod"`
	IER  uint32 `yaml:"ier"`
	IDR  uint32 `yaml:"idr"`
	IMR  uint32 `yaml:"imr"`
	ISR  uint32 `yaml:"isr"`
	TLSB uint32 `yaml:"tlsbCounter"`
	TMSB uint32 `yaml:"tmsbCounter"`
	WPMR uint32 `yaml:"wpmr"`
	WPSR uint32 `yaml:"wpsr"`
}

var DefaultLayout = Layout{
	CR:   0x00,
	MR:   0x04,
	LSBR: 0x08,
	MSBR: 0x0C,
	IER:  0x10,
	IDR:  0x14,
	IMR:  0x18,
	ISR:  0x1C,
	TLSB: 0x20,
	TMSB: 0x24,
	WPMR: 0xE4,
	WPSR: 0xE8,
}

// Convention describes how prescaler divisors map onto the MR.PRES field.
type Convention struct {
	Min  uint8
	Max  uint8
	Bias uint8
}

// DivisorConvention is the only encoding this driver speaks: divisors run
// 1..16 and the hardware field holds divisor-1.
var DivisorConvention = Convention{Min: 1, Max: 16, Bias: 1}

// Encode returns the MR bits selecting divisor.
func (c Convention) Encode(divisor uint8) uint32 {
	return (uint32(divisor-c.Bias) << 8) & MR_PRES
}

// Decode extracts the divisor from a mode register value.
func (c Convention) Decode(mode uint32) uint8 {
	return uint8((mode&MR_PRES)>>8) + c.Bias
}

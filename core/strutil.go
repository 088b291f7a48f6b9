package core

// Formatting helpers for the MCU path, where fmt is too heavy

const hexDigits = "0123456789abcdef"

// itoa converts an integer to a decimal string without fmt
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	negative := n < 0
	u := uint64(n)
	if negative {
		u = uint64(-n)
	}
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// hexN renders the low n nibbles of v with a 0x prefix
func hexN(v uint32, n int) string {
	buf := make([]byte, 2+n)
	buf[0], buf[1] = '0', 'x'
	for i := n - 1; i >= 0; i-- {
		buf[2+i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf)
}

func hex32(v uint32) string { return hexN(v, 8) }
func hex8(v uint32) string  { return hexN(v, 2) }

// padRight pads s with spaces to width w
func padRight(s string, w int) string {
	for len(s) < w {
		s += " "
	}
	return s
}

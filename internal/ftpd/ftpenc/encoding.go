// Package ftpenc converts file and path names between UTF-8 and the
// Windows-1251 byte encoding at the client boundary.
//
// Grounded on original_source/src/convert_utf8_to_windows1251.h: the
// table below and the decode/encode rules are a direct port of that
// header's behaviour, not a general-purpose charmap (see
// encoding_crosscheck_test.go for how this compares against
// golang.org/x/text/encoding/charmap).
package ftpenc

import "fmt"

// Encoding identifies a session's currently negotiated byte encoding.
type Encoding int

const (
	UTF8 Encoding = iota
	Windows1251
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case Windows1251:
		return "Windows-1251"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// specials is the cp1251 -> Unicode table for bytes 0x82-0xBF (minus
// the 0x98 hole), taken verbatim from the source header.
var specials = map[byte]rune{
	0x82: 0x201A, 0x83: 0x0453, 0x84: 0x201E, 0x85: 0x2026,
	0x86: 0x2020, 0x87: 0x2021, 0x88: 0x20AC, 0x89: 0x2030,
	0x8A: 0x0409, 0x8B: 0x2039, 0x8C: 0x040A, 0x8D: 0x040C,
	0x8E: 0x040B, 0x8F: 0x040F, 0x90: 0x0452, 0x91: 0x2018,
	0x92: 0x2019, 0x93: 0x201C, 0x94: 0x201D, 0x95: 0x2022,
	0x96: 0x2013, 0x97: 0x2014, 0x99: 0x2122, 0x9A: 0x0459,
	0x9B: 0x203A, 0x9C: 0x045A, 0x9D: 0x045C, 0x9E: 0x045B,
	0x9F: 0x045F, 0xA0: 0x00A0, 0xA1: 0x040E, 0xA2: 0x045E,
	0xA3: 0x0408, 0xA4: 0x00A4, 0xA5: 0x0490, 0xA6: 0x00A6,
	0xA7: 0x00A7, 0xA8: 0x0401, 0xA9: 0x00A9, 0xAA: 0x0404,
	0xAB: 0x00AB, 0xAC: 0x00AC, 0xAD: 0x00AD, 0xAE: 0x00AE,
	0xAF: 0x0407, 0xB0: 0x00B0, 0xB1: 0x00B1, 0xB2: 0x0406,
	0xB3: 0x0456, 0xB4: 0x0491, 0xB5: 0x00B5, 0xB6: 0x00B6,
	0xB7: 0x00B7, 0xB8: 0x0451, 0xB9: 0x2116, 0xBA: 0x0454,
	0xBB: 0x00BB, 0xBC: 0x0458, 0xBD: 0x0405, 0xBE: 0x0455,
	0xBF: 0x0457,
}

// specialsReverse is built once from specials, used by the encoder.
var specialsReverse = map[rune]byte{}

func init() {
	for b, r := range specials {
		specialsReverse[r] = b
	}
}

// cp1251ToRune is the full 256-entry decode table: 0x00-0x7F pass
// through, 0x80/0x81 hold the two non-table specials (U+0402/U+0403),
// 0x82-0xBF come from the specials table (0x98 left as a hole),
// 0xC0-0xFF are the contiguous Cyrillic А-я block.
var cp1251ToRune [256]rune

func init() {
	for i := 0; i < 0x80; i++ {
		cp1251ToRune[i] = rune(i)
	}
	cp1251ToRune[0x80] = 0x0402
	cp1251ToRune[0x81] = 0x0403
	for b, r := range specials {
		cp1251ToRune[b] = r
	}
	for b := 0xC0; b <= 0xFF; b++ {
		cp1251ToRune[b] = rune(0x0410 + (b - 0xC0))
	}
	// 0x98 left at zero: a hole, dropped on decode.
}

// decodeUTF8Rune decodes one UTF-8 code point from in starting at i,
// returning the rune and the number of bytes consumed. It supports
// one, two, three and four byte sequences; ok is false on a malformed
// leading byte or truncated sequence.
func decodeUTF8Rune(in []byte, i int) (r rune, size int, ok bool) {
	b0 := in[i]
	switch {
	case b0 < 0x80:
		return rune(b0), 1, true
	case b0&0xE0 == 0xC0:
		if i+1 >= len(in) {
			return 0, 0, false
		}
		b1 := in[i+1]
		return rune(b0&0x1F)<<6 | rune(b1&0x3F), 2, true
	case b0&0xF0 == 0xE0:
		if i+2 >= len(in) {
			return 0, 0, false
		}
		b1, b2 := in[i+1], in[i+2]
		return rune(b0&0x0F)<<12 | rune(b1&0x3F)<<6 | rune(b2&0x3F), 3, true
	case b0&0xF8 == 0xF0:
		if i+3 >= len(in) {
			return 0, 0, false
		}
		b1, b2, b3 := in[i+1], in[i+2], in[i+3]
		return rune(b0&0x07)<<18 | rune(b1&0x3F)<<12 | rune(b2&0x3F)<<6 | rune(b3&0x3F), 4, true
	default:
		return 0, 0, false
	}
}

// encodeRune maps one Unicode code point to its cp1251 byte, applying
// the priority order from spec §4.A: ASCII, then the Cyrillic А-я
// block, then the two-code-point U+0402/U+0403 exception, then the
// specials table, then a last-resort identity for the rest of the
// Latin-1 range. Any code point outside all of these fails.
func encodeRune(r rune) (b byte, ok bool) {
	switch {
	case r >= 0x0000 && r <= 0x007F:
		return byte(r), true
	case r >= 0x0410 && r <= 0x044F:
		return byte(r - 0x350), true
	case r == 0x0402 || r == 0x0403:
		return byte(r - 0x382), true
	}
	if b, found := specialsReverse[r]; found {
		return b, true
	}
	if r >= 0x0080 && r <= 0x00FF {
		return byte(r), true
	}
	return 0, false
}

// UTF8ToCP1251 converts a UTF-8 byte buffer to Windows-1251.
//
// On the first code point that has no cp1251 representation, ok is
// false and out holds the successfully translated prefix — the
// source's silent best-effort behaviour (spec §7) is preserved
// deliberately, not treated as a bug.
func UTF8ToCP1251(in []byte) (out []byte, ok bool) {
	out = make([]byte, 0, len(in))
	i := 0
	for i < len(in) {
		r, size, decOK := decodeUTF8Rune(in, i)
		if !decOK {
			return out, false
		}
		b, mapped := encodeRune(r)
		if !mapped {
			return out, false
		}
		out = append(out, b)
		i += size
	}
	return out, true
}

// CP1251ToUTF8 converts a Windows-1251 byte buffer to UTF-8. Bytes
// with no Unicode mapping (the 0x98 hole) are dropped silently.
func CP1251ToUTF8(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for _, b := range in {
		r := cp1251ToRune[b]
		if r == 0 && b != 0 {
			continue
		}
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, byte(0xC0|(r>>6)), byte(0x80|(r&0x3F)))
		default:
			out = append(out, byte(0xE0|(r>>12)), byte(0x80|((r>>6)&0x3F)), byte(0x80|(r&0x3F)))
		}
	}
	return out
}

// ToNative translates buf from the session encoding to the server's
// native encoding. If session already is native, buf is returned
// unchanged.
func ToNative(buf []byte, session, native Encoding) []byte {
	return translate(buf, session, native)
}

// FromNative translates buf from the server's native encoding to the
// session encoding.
func FromNative(buf []byte, session, native Encoding) []byte {
	return translate(buf, native, session)
}

// translate converts buf from "from" to "to"; identical encodings are
// a no-op, and a translation failure returns the partial best-effort
// prefix per spec §7.
func translate(buf []byte, from, to Encoding) []byte {
	if from == to {
		return buf
	}
	if to == Windows1251 {
		out, _ := UTF8ToCP1251(buf)
		return out
	}
	return CP1251ToUTF8(buf)
}

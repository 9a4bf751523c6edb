package ftpenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/charmap"
)

// TestCrossCheckAgainstStandardCharmap compares the hand-rolled decode
// table against golang.org/x/text/encoding/charmap's CodePage1251 for
// every byte that both sides define. The wire-format translator is
// hand-rolled on purpose (spec §4.A's exact byte algorithm, including
// the silent best-effort failure mode) rather than built on charmap,
// but the two should still agree on what each byte *means* wherever
// Windows-1251 itself defines it.
func TestCrossCheckAgainstStandardCharmap(t *testing.T) {
	dec := charmap.Windows1251.NewDecoder()
	for b := 0; b < 256; b++ {
		if b == 0x98 {
			continue // documented hole in this translator, see spec §4.A
		}
		want, _, err := dec.Bytes([]byte{byte(b)})
		if err != nil {
			continue
		}
		got := CP1251ToUTF8([]byte{byte(b)})
		assert.Equal(t, string(want), string(got), "byte 0x%02X", b)
	}
}

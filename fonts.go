package pdftpl

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/lvillar/pdftpl/object"
)

// helveticaWidths holds the advance widths of Helvetica for codes 32 to 126, in
// thousandths of the font size.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

// StringWidth estimates the width of s set in Helvetica at size points. Characters
// outside printable ASCII count as 556.
func StringWidth(s string, size float64) float64 {
	total := 0
	for _, c := range toWinAnsi(s) {
		if c >= 32 && c <= 126 {
			total += helveticaWidths[c-32]
		} else {
			total += 556
		}
	}
	return float64(total) * size / 1000
}

// toWinAnsi encodes s for the standard fonts. Characters WinAnsiEncoding lacks
// become the ASCII substitute byte.
func toWinAnsi(s string) []byte {
	out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// textString encodes s as a PDF text string: ASCII as is, anything else as
// UTF-16BE with a byte order mark.
func textString(s string) object.String {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return object.String{Value: []byte(s)}
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return object.String{Value: []byte(s)}
	}
	return object.String{Value: out}
}

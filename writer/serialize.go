package writer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/lvillar/pdftpl/object"
)

// Serialize returns the PDF syntax for obj, as it appears inside an indirect
// object body.
func Serialize(obj object.Object) []byte {
	var buf bytes.Buffer
	appendObject(&buf, obj)
	return buf.Bytes()
}

func appendObject(buf *bytes.Buffer, obj object.Object) {
	switch v := obj.(type) {
	case nil, object.Null:
		buf.WriteString("null")
	case object.Boolean:
		buf.WriteString(v.String())
	case object.Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case object.Real:
		buf.WriteString(FormatReal(float64(v)))
	case object.Name:
		appendName(buf, v)
	case object.String:
		appendString(buf, v)
	case object.Reference:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
	case object.Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			appendObject(buf, item)
		}
		buf.WriteByte(']')
	case object.Dict:
		appendDict(buf, v)
	case object.Stream:
		dict := v.Dict.Clone()
		if dict == nil {
			dict = object.Dict{}
		}
		dict["Length"] = object.Integer(len(v.Data))
		appendDict(buf, dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	}
}

func appendDict(buf *bytes.Buffer, d object.Dict) {
	buf.WriteString("<<")
	for _, k := range d.Keys() {
		appendName(buf, k)
		buf.WriteByte(' ')
		appendObject(buf, d[k])
	}
	buf.WriteString(">>")
}

// FormatReal writes f without an exponent, which PDF syntax does not allow.
func FormatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimZeros(s)
	if s == "-0" {
		return "0"
	}
	return s
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

func appendName(buf *bytes.Buffer, n object.Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func appendString(buf *bytes.Buffer, s object.String) {
	if s.IsHex {
		fmt.Fprintf(buf, "<%X>", s.Value)
		return
	}
	buf.WriteByte('(')
	for _, c := range s.Value {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}

package reader

import (
	"strings"
	"unicode/utf16"
)

// ExtractText extracts the text content from this page.
// Strings shown inside BT/ET blocks with Tj, TJ, ' and " are joined with spaces.
//
// Note: This is a basic extraction that handles common cases. Complex text
// with custom encodings, CIDFonts, or ToUnicode CMaps may not be fully supported.
func (p *Page) ExtractText() (string, error) {
	strs, err := p.TextStrings()
	if err != nil {
		return "", err
	}
	return strings.Join(strs, " "), nil
}

// TextStrings returns every string shown on the page, in content order.
func (p *Page) TextStrings() ([]string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return nil, err
	}
	return textStrings(data), nil
}

// textStrings scans a content stream for strings operated on inside text objects.
func textStrings(data []byte) []string {
	var out []string
	var inText bool
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	p := newParser(data)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}
		switch b := p.data[p.pos]; {
		case b == '(':
			s, err := p.parseLiteralString()
			if err != nil {
				return out
			}
			if inText {
				cur.WriteString(decodePDFString(s.Value))
			}
		case b == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] != '<':
			s, err := p.parseHexString()
			if err != nil {
				return out
			}
			if inText {
				cur.WriteString(decodePDFString(s.Value))
			}
		case b == '[' || b == ']' || b == '{' || b == '}':
			p.pos++
		case b == '/':
			p.parseName()
		case b == '<' || b == '>':
			p.pos++
		default:
			tok := p.readToken()
			if tok == "" {
				p.pos++
				continue
			}
			switch tok {
			case "BT":
				inText = true
			case "ET":
				inText = false
				flush()
			case "Tj", "TJ", "'", "\"":
				flush()
			case "BI":
				skipInlineImage(p)
			}
		}
	}
	flush()
	return out
}

// skipInlineImage advances past the binary data of an inline image (BI ... ID data EI).
func skipInlineImage(p *parser) {
	for p.pos < len(p.data) {
		if p.readToken() == "ID" {
			break
		}
		if p.pos < len(p.data) && !isRegular(p.data[p.pos]) {
			p.pos++
		}
	}
	for p.pos+2 < len(p.data) {
		if isWhitespace(p.data[p.pos]) && p.data[p.pos+1] == 'E' && p.data[p.pos+2] == 'I' &&
			(p.pos+3 >= len(p.data) || !isRegular(p.data[p.pos+3])) {
			p.pos += 3
			return
		}
		p.pos++
	}
	p.pos = len(p.data)
}

// decodePDFString attempts to decode a PDF string to a Go string.
// Handles UTF-16BE BOM and falls back to Latin-1.
func decodePDFString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	var buf strings.Builder
	for _, b := range data {
		buf.WriteRune(rune(b))
	}
	return buf.String()
}

// decodeUTF16BE decodes UTF-16BE encoded bytes to a Go string.
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(u16s))
}

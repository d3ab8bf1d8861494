package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/lvillar/pdftpl/object"
)

// maxNesting bounds array/dictionary nesting so hostile input cannot exhaust the stack.
const maxNesting = 256

// SyntaxError reports malformed PDF syntax at a byte offset of the parsed data.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("reader: syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Byte classes of the PDF lexical conventions.
const (
	regular byte = iota
	space
	delim
)

var classes = func() (t [256]byte) {
	for _, c := range []byte{0, '\t', '\n', '\f', '\r', ' '} {
		t[c] = space
	}
	for _, c := range []byte("()<>[]{}/%") {
		t[c] = delim
	}
	return t
}()

func isWhitespace(b byte) bool { return classes[b] == space }
func isDelimiter(b byte) bool  { return classes[b] == delim }
func isRegular(b byte) bool    { return classes[b] == regular }

// literalEscapes maps the character after a backslash in a literal string to the
// byte it stands for.
var literalEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// parser reads PDF objects from a byte slice.
type parser struct {
	data  []byte
	pos   int
	depth int

	// length resolves an indirect /Length value of a stream dictionary.
	// When nil or unable to resolve, the parser falls back to scanning for endstream.
	length func(object.Reference) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.data) }

// peek returns the byte at pos+n, or 0 past the end.
func (p *parser) peek(n int) byte {
	if p.pos+n >= len(p.data) {
		return 0
	}
	return p.data[p.pos+n]
}

// skipWhitespace advances past whitespace and comments.
func (p *parser) skipWhitespace() {
	for !p.eof() {
		switch c := p.data[p.pos]; {
		case isWhitespace(c):
			p.pos++
		case c == '%':
			for !p.eof() && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

// readToken skips whitespace and returns the run of regular characters that
// follows: a keyword or a number.
func (p *parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for !p.eof() && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// hasKeyword reports whether kw starts at the current position.
func (p *parser) hasKeyword(kw string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(kw))
}

// ParseObject parses the next direct object.
func (p *parser) ParseObject() (object.Object, error) {
	p.skipWhitespace()
	if p.eof() {
		return nil, io.ErrUnexpectedEOF
	}
	switch c := p.data[p.pos]; c {
	case '/':
		return p.parseName()
	case '(':
		return p.parseLiteralString()
	case '[':
		return p.parseArray()
	case '<':
		if p.peek(1) == '<' {
			return p.parseDict()
		}
		return p.parseHexString()
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumberOrRef()
	}
	return p.parseKeyword()
}

// parseKeyword handles the keyword objects true, false and null.
func (p *parser) parseKeyword() (object.Object, error) {
	start := p.pos
	switch tok := p.readToken(); tok {
	case "true":
		return object.Boolean(true), nil
	case "false":
		return object.Boolean(false), nil
	case "null":
		return object.Null{}, nil
	case "":
		return nil, p.errorf("unexpected %q", p.data[p.pos])
	default:
		p.pos = start
		return nil, p.errorf("unexpected keyword %q", tok)
	}
}

func (p *parser) parseName() (object.Name, error) {
	p.pos++ // '/'
	var name []byte
	for !p.eof() && isRegular(p.data[p.pos]) {
		c := p.data[p.pos]
		if c == '#' {
			if hi, lo := unhex(p.peek(1)), unhex(p.peek(2)); hi >= 0 && lo >= 0 {
				name = append(name, byte(hi<<4|lo))
				p.pos += 3
				continue
			}
		}
		name = append(name, c)
		p.pos++
	}
	return object.Name(name), nil
}

// parseNumberOrRef parses a number, or an indirect reference when the number is
// followed by a generation and an R that ends the token.
func (p *parser) parseNumberOrRef() (object.Object, error) {
	start := p.pos
	tok := p.readToken()

	num, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			p.pos = start
			return nil, p.errorf("invalid number %q", tok)
		}
		return object.Real(f), nil
	}

	after := p.pos
	if gen, ok := p.referenceTail(); ok {
		return object.Reference{Number: int(num), Generation: gen}, nil
	}
	p.pos = after
	return object.Integer(num), nil
}

// referenceTail consumes "G R" if it follows.
func (p *parser) referenceTail() (int, bool) {
	p.skipWhitespace()
	if c := p.peek(0); c < '0' || c > '9' {
		return 0, false
	}
	gen, err := strconv.Atoi(p.readToken())
	if err != nil {
		return 0, false
	}
	p.skipWhitespace()
	if p.peek(0) != 'R' || isRegular(p.peek(1)) && p.pos+1 < len(p.data) {
		return 0, false
	}
	p.pos++
	return gen, true
}

// parseLiteralString parses "(text)", decoding escapes and keeping balanced
// parentheses.
func (p *parser) parseLiteralString() (object.String, error) {
	start := p.pos
	p.pos++ // '('
	var out []byte
	for depth := 1; ; {
		if p.eof() {
			p.pos = start
			return object.String{}, p.errorf("unterminated literal string")
		}
		c := p.data[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return object.String{Value: out}, nil
			}
		case '\\':
			out = p.literalEscape(out)
			continue
		}
		out = append(out, c)
	}
}

// literalEscape decodes the escape sequence after a backslash.
func (p *parser) literalEscape(out []byte) []byte {
	if p.eof() {
		return out
	}
	c := p.data[p.pos]
	p.pos++
	if b, ok := literalEscapes[c]; ok {
		return append(out, b)
	}
	switch {
	case c == '\r':
		// Line continuation; \r\n counts as one end of line.
		if p.peek(0) == '\n' {
			p.pos++
		}
		return out
	case c == '\n':
		return out
	case c >= '0' && c <= '7':
		v := int(c - '0')
		for i := 0; i < 2 && p.peek(0) >= '0' && p.peek(0) <= '7'; i++ {
			v = v<<3 | int(p.data[p.pos]-'0')
			p.pos++
		}
		return append(out, byte(v))
	}
	// An unknown escape stands for the character itself.
	return append(out, c)
}

// parseHexString parses "<hex digits>". An odd final digit is padded with zero.
func (p *parser) parseHexString() (object.String, error) {
	p.pos++ // '<'
	var out []byte
	hi := -1
	for !p.eof() {
		c := p.data[p.pos]
		p.pos++
		switch v := unhex(c); {
		case c == '>':
			if hi >= 0 {
				out = append(out, byte(hi<<4))
			}
			return object.String{Value: out, IsHex: true}, nil
		case isWhitespace(c):
		case v < 0:
			p.pos--
			return object.String{}, p.errorf("invalid hex digit %q", c)
		case hi < 0:
			hi = v
		default:
			out = append(out, byte(hi<<4|v))
			hi = -1
		}
	}
	return object.String{}, p.errorf("unterminated hex string")
}

// nest guards array and dictionary recursion; the returned func must be deferred.
func (p *parser) nest() (func(), error) {
	if p.depth >= maxNesting {
		return nil, p.errorf("nesting deeper than %d", maxNesting)
	}
	p.depth++
	return func() { p.depth-- }, nil
}

func (p *parser) parseArray() (object.Array, error) {
	leave, err := p.nest()
	if err != nil {
		return nil, err
	}
	defer leave()
	p.pos++ // '['

	arr := object.Array{}
	for {
		p.skipWhitespace()
		switch {
		case p.eof():
			return nil, p.errorf("unterminated array")
		case p.data[p.pos] == ']':
			p.pos++
			return arr, nil
		}
		item, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

// parseDict parses "<< /Key value ... >>". Entries whose value is null are
// dropped, since a null value is equivalent to an absent key.
func (p *parser) parseDict() (object.Dict, error) {
	leave, err := p.nest()
	if err != nil {
		return nil, err
	}
	defer leave()
	p.pos += 2 // "<<"

	d := object.Dict{}
	for {
		p.skipWhitespace()
		switch {
		case p.eof():
			return nil, p.errorf("unterminated dictionary")
		case p.hasKeyword(">>"):
			p.pos += 2
			return d, nil
		case p.data[p.pos] != '/':
			return nil, p.errorf("dictionary key is not a name")
		}
		key, _ := p.parseName()
		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("%w (value of /%s)", err, key)
		}
		if !object.IsNull(val) {
			d[key] = val
		}
	}
}

// ParseIndirectObject parses "N G obj ... endobj", including stream data.
func (p *parser) ParseIndirectObject() (*IndirectObject, error) {
	var header [2]int
	for i := range header {
		tok := p.readToken()
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, p.errorf("expected object number, got %q", tok)
		}
		header[i] = n
	}
	if tok := p.readToken(); tok != "obj" {
		return nil, p.errorf("expected obj, got %q", tok)
	}
	ref := object.Reference{Number: header[0], Generation: header[1]}

	val, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", ref, err)
	}

	p.skipWhitespace()
	if p.hasKeyword("stream") {
		dict, ok := val.(object.Dict)
		if !ok {
			return nil, p.errorf("stream %s has no dictionary", ref)
		}
		data, err := p.readStreamData(dict)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", ref, err)
		}
		val = object.Stream{Dict: dict, Data: data}
		p.skipWhitespace()
	}
	if p.hasKeyword("endobj") {
		p.pos += len("endobj")
	}
	return &IndirectObject{Reference: ref, Value: val}, nil
}

// declaredLength returns the /Length of a stream dictionary, or -1.
func (p *parser) declaredLength(dict object.Dict) int {
	switch l := dict["Length"].(type) {
	case object.Integer:
		return int(l)
	case object.Reference:
		if p.length != nil {
			if n, ok := p.length(l); ok {
				return n
			}
		}
	}
	return -1
}

// readStreamData reads the bytes between "stream" and "endstream".
// /Length is trusted when it points at an endstream keyword; otherwise the data
// is delimited by scanning for endstream.
func (p *parser) readStreamData(dict object.Dict) ([]byte, error) {
	p.pos += len("stream")
	// The keyword is followed by CRLF or LF.
	if p.peek(0) == '\r' {
		p.pos++
	}
	if p.peek(0) == '\n' {
		p.pos++
	}
	start := p.pos

	if n := p.declaredLength(dict); n >= 0 && start+n <= len(p.data) {
		end := &parser{data: p.data, pos: start + n}
		end.skipWhitespace()
		if end.hasKeyword("endstream") {
			p.pos = end.pos + len("endstream")
			return bytes.Clone(p.data[start : start+n]), nil
		}
	}

	n := bytes.Index(p.data[start:], []byte("endstream"))
	if n < 0 {
		return nil, p.errorf("missing endstream")
	}
	p.pos = start + n + len("endstream")
	data := p.data[start : start+n]
	// The end-of-line marker before endstream is not part of the data.
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return bytes.Clone(data), nil
}

// unhex returns the value of a hex digit, or -1.
func unhex(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(b-'a') + 10
	case 'A' <= b && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

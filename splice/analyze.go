package splice

// Stats summarizes the graphics state operators of a content stream.
type Stats struct {
	Saves     int // q operators
	Restores  int // Q operators, matched or not
	Unmatched int // Q operators with no open q
	// AdjacentUnmatched is set when two unmatched Q operators follow each other
	// with no other operator in between.
	AdjacentUnmatched bool
}

// Balanced reports whether every save is restored and every restore matched.
func (s Stats) Balanced() bool {
	return s.Unmatched == 0 && s.Saves == s.Restores
}

// Analyze scans content stream data and counts save and restore operators.
// Strings, names, comments and inline image data are skipped, so a "Q" inside
// them is not counted.
func Analyze(data []byte) Stats {
	var st Stats
	depth := 0
	prevUnmatched := false

	sc := scanner{data: data}
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		switch tok {
		case "q":
			depth++
			st.Saves++
			prevUnmatched = false
		case "Q":
			st.Restores++
			if depth == 0 {
				st.Unmatched++
				if prevUnmatched {
					st.AdjacentUnmatched = true
				}
				prevUnmatched = true
				continue
			}
			depth--
			prevUnmatched = false
		case "BI":
			sc.skipInlineImage()
			prevUnmatched = false
		default:
			if isOperator(tok) {
				prevUnmatched = false
			}
		}
	}
	return st
}

func isOperator(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '\'' || c == '"'
}

// scanner splits content stream data into tokens. Strings and names come back as
// "", since only keywords matter to Analyze.
type scanner struct {
	data []byte
	pos  int
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *scanner) next() (string, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.skipLiteral()
			return "", true
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				return "<<", true
			}
			for s.pos < len(s.data) && s.data[s.pos] != '>' {
				s.pos++
			}
			s.pos++
			return "", true
		case c == '>':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
				s.pos += 2
				return ">>", true
			}
			s.pos++
		case c == '[' || c == ']' || c == '{' || c == '}' || c == ')':
			s.pos++
			return string(c), true
		case c == '/':
			s.pos++
			s.regular()
			return "", true
		default:
			return s.regular(), true
		}
	}
	return "", false
}

func (s *scanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *scanner) skipLiteral() {
	depth := 0
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			s.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipInlineImage advances past the "ID ... EI" section of an inline image.
func (s *scanner) skipInlineImage() {
	for {
		tok, ok := s.next()
		if !ok {
			return
		}
		if tok == "ID" {
			break
		}
	}
	// One whitespace byte separates ID from the binary data.
	s.pos++
	for s.pos+1 < len(s.data) {
		if s.data[s.pos] == 'E' && s.data[s.pos+1] == 'I' &&
			(s.pos == 0 || isSpace(s.data[s.pos-1])) &&
			(s.pos+2 == len(s.data) || isSpace(s.data[s.pos+2]) || isDelim(s.data[s.pos+2])) {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

package query

import "unicode/utf8"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	// text is the literal as written; for strings the quotes are removed.
	text string
	pos  int
}

// scan splits query text into tokens. It never fails: unterminated strings
// run to the end of input and unknown characters come back as punctuation.
// Whitespace, commas and # comments are dropped.
func scan(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' && src[i] != '\r' {
				i++
			}
		case c == '"' || c == '\'':
			start := i
			text, next := scanString(src, i)
			toks = append(toks, token{kind: tokString, text: text, pos: start})
			i = next
		case isNameStart(c):
			start := i
			for i < len(src) && isNameContinue(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokName, text: src[start:i], pos: start})
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i++
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'e' || src[i] == 'E' || src[i] == '+') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		default:
			_, size := utf8.DecodeRuneInString(src[i:])
			toks = append(toks, token{kind: tokPunct, text: src[i : i+size], pos: i})
			i += size
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)})
}

// scanString reads a quoted literal starting at src[i]. Block strings
// ("""...""") and backslash escapes are honoured well enough to find the end.
func scanString(src string, i int) (string, int) {
	quote := src[i]
	if quote == '"' && len(src) >= i+3 && src[i:i+3] == `"""` {
		start := i + 3
		for j := start; j+3 <= len(src); j++ {
			if src[j:j+3] == `"""` {
				return src[start:j], j + 3
			}
		}
		return src[start:], len(src)
	}
	start := i + 1
	for j := start; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return src[start:j], j + 1
		case '\n':
			return src[start:j], j
		}
	}
	return src[start:], len(src)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameContinue(c byte) bool { return isNameStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (t token) is(punct string) bool { return t.kind == tokPunct && t.text == punct }

// skipGroup returns the index just past the group opened at toks[i]. The
// opening token must be one of ( [ {. Unclosed groups run to EOF.
func skipGroup(toks []token, i int) int {
	open := toks[i].text
	closer := map[string]string{"(": ")", "[": "]", "{": "}"}[open]
	depth := 0
	for ; toks[i].kind != tokEOF; i++ {
		switch {
		case toks[i].is(open):
			depth++
		case toks[i].is(closer):
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

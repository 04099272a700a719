package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	schema "github.com/hanpama/querytrainer/internal/schema"
	"golang.org/x/text/unicode/norm"
)

// Argument names understood on the orders root.
const (
	ArgUserID    = "userId"
	ArgDelivered = "delivered"
	ArgCountry   = "country"
	ArgOffset    = "offset"
	ArgLimit     = "limit"
)

// UserDirectory answers whether a user id exists.
type UserDirectory interface {
	HasUser(id string) bool
}

// Args are the parsed root arguments of an orders query. Nil fields were not
// supplied (or, for Delivered, were neither true nor false).
type Args struct {
	UserID    *string
	Delivered *bool
	Country   *string
	Offset    *int
	Limit     *int
	// Raw holds every root argument as written, quotes stripped.
	Raw map[string]string
}

// Has reports whether the named argument was written on the root field.
func (a Args) Has(name string) bool {
	_, ok := a.Raw[name]
	return ok
}

type argPair struct {
	key   string
	value string
}

var integerLiteral = regexp.MustCompile(`^-?[0-9]+$`)

// ValidateArgs checks the arguments of the root field. Only orders takes
// arguments; any other root yields empty Args. The text must already have
// passed Check. An orders root that is not selected in the outermost block
// is ErrUnsupportedRoot.
func ValidateArgs(text, root string, users UserDirectory) (Args, error) {
	args := Args{Raw: map[string]string{}}
	if root != schema.RootOrders {
		return args, nil
	}

	toks := scan(text)
	i := findRoot(toks, root)
	if i < 0 {
		return Args{}, ErrUnsupportedRoot
	}
	var rootPairs []argPair
	if toks[i+1].is("(") {
		rootPairs, _ = parseArgGroup(text, toks, i+1)
	}
	for _, p := range rootPairs {
		if _, dup := args.Raw[p.key]; !dup {
			args.Raw[p.key] = p.value
		}
	}

	uid, ok := args.Raw[ArgUserID]
	if !ok {
		return Args{}, ErrMissingUserID
	}
	if !users.HasUser(norm.NFC.String(uid)) {
		return Args{}, unknownUser(uid)
	}

	// limit and offset must be integers wherever they appear.
	for i := range toks {
		if !toks[i].is("(") {
			continue
		}
		pairs, _ := parseArgGroup(text, toks, i)
		for _, p := range pairs {
			if (p.key == ArgLimit || p.key == ArgOffset) && !integerLiteral.MatchString(p.value) {
				return Args{}, nonNumeric(p.key, p.value)
			}
		}
	}

	uid = norm.NFC.String(uid)
	args.UserID = &uid
	if v, ok := args.Raw[ArgDelivered]; ok {
		switch v {
		case "true":
			b := true
			args.Delivered = &b
		case "false":
			b := false
			args.Delivered = &b
		}
	}
	if v, ok := args.Raw[ArgCountry]; ok {
		c := norm.NFC.String(v)
		args.Country = &c
	}
	if v, ok := args.Raw[ArgOffset]; ok {
		n := parseInt(v)
		args.Offset = &n
	}
	if v, ok := args.Raw[ArgLimit]; ok {
		n := parseInt(v)
		args.Limit = &n
	}
	return args, nil
}

// parseInt converts a literal that already matched integerLiteral,
// saturating on overflow.
func parseInt(s string) int {
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		if strings.HasPrefix(s, "-") {
			return math.MinInt
		}
		return math.MaxInt
	}
	return int(n)
}

// findRoot returns the index of the first name token equal to root that
// sits directly inside the outermost selection set, or -1.
func findRoot(toks []token, root string) int {
	depth := 0
	for i, t := range toks {
		switch {
		case t.is("{"):
			depth++
		case t.is("}"):
			depth--
		case t.kind == tokName && t.text == root && depth == 1:
			return i
		}
	}
	return -1
}

// parseArgGroup reads `key: value` pairs from the parenthesised group that
// opens at toks[i]. Object and list values are skipped and recorded as empty.
// A value that does not end cleanly, like 3abc or 2 3, is recorded as the
// raw source text up to the next separator.
func parseArgGroup(src string, toks []token, i int) ([]argPair, int) {
	end := skipGroup(toks, i)
	var pairs []argPair
	for j := i + 1; j < end; {
		t := toks[j]
		if t.kind != tokName || !toks[j+1].is(":") {
			if t.is("[") || t.is("{") || (t.is("(") && j > i) {
				j = skipGroup(toks, j)
				continue
			}
			j++
			continue
		}
		j += 2
		v := toks[j]
		switch {
		case v.kind == tokString || v.kind == tokNumber || v.kind == tokName:
			next := nextSeparator(toks, j+1, end)
			switch {
			case next != j+1:
				pairs = append(pairs, argPair{key: t.text, value: rawBetween(src, v.pos, toks[next].pos)})
			case v.kind != tokString && adjacent(v, toks[next]):
				// 3limit: reads as one literal glued to the next key
				n := toks[next]
				pairs = append(pairs, argPair{key: t.text, value: rawBetween(src, v.pos, n.pos+len(n.text))})
			default:
				pairs = append(pairs, argPair{key: t.text, value: strings.TrimSpace(v.text)})
			}
			j = next
		case v.is("$") && toks[j+1].kind == tokName:
			pairs = append(pairs, argPair{key: t.text, value: "$" + toks[j+1].text})
			j += 2
		case v.is("[") || v.is("{"):
			pairs = append(pairs, argPair{key: t.text})
			j = skipGroup(toks, j)
		default:
			pairs = append(pairs, argPair{key: t.text})
		}
	}
	return pairs, end
}

// nextSeparator returns the index of the first token at or after j that ends
// an argument value: the group's closing token, EOF, or a name followed by a
// colon.
func nextSeparator(toks []token, j, end int) int {
	for ; j < end; j++ {
		if toks[j].kind == tokEOF || toks[j].is(")") {
			return j
		}
		if toks[j].kind == tokName && toks[j+1].is(":") {
			return j
		}
	}
	return end
}

// adjacent reports whether next starts right where the unquoted literal v
// ends, with no whitespace or comma between them.
func adjacent(v, next token) bool {
	return next.kind == tokName && next.pos == v.pos+len(v.text)
}

func rawBetween(src string, from, to int) string {
	if to > len(src) {
		to = len(src)
	}
	return strings.TrimRight(strings.TrimSpace(src[from:to]), ",")
}

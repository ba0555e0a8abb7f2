package extract

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// Syntax is the dialect that successfully decoded a record as a mapping.
type Syntax string

const (
	SyntaxNone    Syntax = ""
	SyntaxJSON    Syntax = "json"
	SyntaxRelaxed Syntax = "relaxed"
	SyntaxLiteral Syntax = "literal"
)

// ParseMapping decodes text as a key/value object, trying strict JSON, then
// relaxed JSON, then literal syntax. It returns nil when none yields an object.
func ParseMapping(text string) (map[string]any, Syntax) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err == nil && m != nil {
		return m, SyntaxJSON
	}

	if m := parseRelaxed(text); m != nil {
		return m, SyntaxRelaxed
	}

	if m := parseLiteral(text); m != nil {
		return m, SyntaxLiteral
	}
	return nil, SyntaxNone
}

// parseRelaxed reads an object with gjson, which does not validate its input
// and so tolerates trailing commas and similar damage.
func parseRelaxed(text string) map[string]any {
	r := gjson.Parse(text)
	if !r.IsObject() {
		return nil
	}
	m := make(map[string]any)
	r.ForEach(func(key, value gjson.Result) bool {
		if key.String() != "" {
			m[key.String()] = value.Value()
		}
		return true
	})
	if len(m) == 0 {
		return nil
	}
	return m
}

// parseLiteral accepts literal-style objects: single-quoted strings,
// True/False/None and trailing commas.
func parseLiteral(text string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(literalToJSON(text)), &m); err != nil {
		return nil
	}
	return m
}

func literalToJSON(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case c == '"' || c == '\'':
			i = copyString(&b, rs, i)
		case c == ',':
			if !closesNext(rs, i+1) {
				b.WriteRune(c)
			}
		case unicode.IsLetter(c):
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			switch word := string(rs[i:j]); word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// copyString writes the quoted string starting at rs[start] as a JSON
// string and returns the index of its closing quote.
func copyString(b *strings.Builder, rs []rune, start int) int {
	quote := rs[start]
	b.WriteByte('"')
	i := start + 1
	for ; i < len(rs); i++ {
		c := rs[i]
		if c == '\\' && i+1 < len(rs) {
			next := rs[i+1]
			if next == '\'' {
				b.WriteRune('\'')
			} else {
				b.WriteRune(c)
				b.WriteRune(next)
			}
			i++
			continue
		}
		if c == quote {
			break
		}
		if c == '"' {
			b.WriteString(`\"`)
			continue
		}
		b.WriteRune(c)
	}
	b.WriteByte('"')
	return i
}

func closesNext(rs []rune, from int) bool {
	for i := from; i < len(rs); i++ {
		if unicode.IsSpace(rs[i]) {
			continue
		}
		return rs[i] == '}' || rs[i] == ']'
	}
	return false
}

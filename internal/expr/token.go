package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokBool
	tokValue       // the "value" keyword
	tokPlaceholder // ${...}, text holds the inner spec
	tokOp          // !, ==, !=, >=, <=, >, <, &&, ||
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	b    bool
}

// tokenize splits an expression into tokens. Bare identifiers are
// string literals; "true"/"false" match case-insensitively.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++

		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			spec, end, ok := scanPlaceholder(src, i+2)
			if !ok {
				return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			toks = append(toks, token{kind: tokPlaceholder, text: spec})
			i = end

		case c == '\'' || c == '"':
			j := i + 1
			for j < len(src) && src[j] != c {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : j]})
			i = j + 1

		case c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: "!="})
				i += 2
			} else {
				toks = append(toks, token{kind: tokOp, text: "!"})
				i++
			}
		case c == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: "=="})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '=' at offset %d", i)
			}
		case c == '>' || c == '<':
			op := string(c)
			i++
			if i < len(src) && src[i] == '=' {
				op += "="
				i++
			}
			toks = append(toks, token{kind: tokOp, text: op})
		case c == '&':
			if i+1 < len(src) && src[i+1] == '&' {
				toks = append(toks, token{kind: tokOp, text: "&&"})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '&' at offset %d", i)
			}
		case c == '|':
			if i+1 < len(src) && src[i+1] == '|' {
				toks = append(toks, token{kind: tokOp, text: "||"})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '|' at offset %d", i)
			}

		case c >= '0' && c <= '9', c == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				((src[j] == '+' || src[j] == '-') && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			f, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q", src[i:j])
			}
			toks = append(toks, token{kind: tokNumber, num: f})
			i = j

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			word := src[i:j]
			switch strings.ToLower(word) {
			case "true":
				toks = append(toks, token{kind: tokBool, b: true})
			case "false":
				toks = append(toks, token{kind: tokBool, b: false})
			case "value":
				toks = append(toks, token{kind: tokValue})
			default:
				// Bare words are string literals.
				toks = append(toks, token{kind: tokString, text: word})
			}
			i = j

		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '.' || c == '-' || c == '/'
}

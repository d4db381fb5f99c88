package judgments

import (
	"fmt"
	"unicode"
)

// parseList accepts `[` [item {`,` item} [`,`]] `]` where an item is a
// single- or double-quoted string without escapes, or a bare word of
// letters, digits, '_' and '-'. Nothing is ever evaluated.
func parseList(s string) ([]string, error) {
	p := listParser{src: []rune(s)}
	return p.parse()
}

type listParser struct {
	src []rune
	pos int
}

func (p *listParser) parse() ([]string, error) {
	p.skipSpace()
	if !p.consume('[') {
		return nil, fmt.Errorf("list must start with '['")
	}
	items := []string{}
	p.skipSpace()
	if p.consume(']') {
		return items, p.end()
	}
	for {
		p.skipSpace()
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpace()
		if p.consume(']') {
			return items, p.end()
		}
		if !p.consume(',') {
			return nil, fmt.Errorf("expected ',' or ']' at offset %d", p.pos)
		}
		p.skipSpace()
		if p.consume(']') {
			return items, p.end()
		}
	}
}

func (p *listParser) item() (string, error) {
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("unterminated list")
	}
	switch quote := p.src[p.pos]; quote {
	case '\'', '"':
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != quote {
			if p.src[p.pos] == '\\' {
				return "", fmt.Errorf("escape sequences are not allowed (offset %d)", p.pos)
			}
			p.pos++
		}
		if p.pos >= len(p.src) {
			return "", fmt.Errorf("unterminated string starting at offset %d", start-1)
		}
		s := string(p.src[start:p.pos])
		p.pos++
		return s, nil
	default:
		start := p.pos
		for p.pos < len(p.src) && isBareRune(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			return "", fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
		}
		return string(p.src[start:p.pos]), nil
	}
}

func (p *listParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return fmt.Errorf("trailing input after list at offset %d", p.pos)
	}
	return nil
}

func (p *listParser) consume(r rune) bool {
	if p.pos < len(p.src) && p.src[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

func (p *listParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isBareRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// Package parser extracts hashtag labels from raw note descriptions.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const marker = "#"

// tagStripRe matches every character a tag may not contain: anything
// other than Latin letters, Cyrillic letters and ASCII digits.
var tagStripRe = regexp.MustCompile(`[^A-Za-zА-Яа-яЁё0-9]`)

// Result holds the output of parsing a raw description.
type Result struct {
	Description string
	Tags        []string
}

// Parse splits raw on Unicode whitespace and turns every token starting
// with '#' into a tag. Tags keep token order and duplicates; a token that
// strips down to nothing is dropped. The returned description is raw without
// its tag tokens (and the whitespace in front of them) and without any
// remaining '#', trimmed.
func Parse(raw string) Result {
	tags := []string{}
	var b strings.Builder
	for rest := raw; rest != ""; {
		var ws, tok string
		ws, rest = cut(rest, true)
		tok, rest = cut(rest, false)
		if strings.HasPrefix(tok, marker) {
			if tag := cleanTag(tok); tag != "" {
				tags = append(tags, tag)
			}
			continue
		}
		b.WriteString(ws)
		b.WriteString(tok)
	}

	desc := strings.ReplaceAll(b.String(), marker, "")
	return Result{
		Description: strings.TrimSpace(desc),
		Tags:        tags,
	}
}

// cut returns the longest prefix of s whose runes are all whitespace (or all
// non-whitespace when space is false) and the remainder.
func cut(s string, space bool) (string, string) {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) != space {
			break
		}
		i += size
	}
	return s[:i], s[i:]
}

// EditableDescription rebuilds a raw description from a stored note so that
// Parse(EditableDescription(d, tags)) yields d and tags again.
func EditableDescription(description string, tags []string) string {
	if len(tags) == 0 {
		return description
	}
	var b strings.Builder
	b.WriteString(description)
	for _, t := range tags {
		b.WriteString(" ")
		b.WriteString(marker)
		b.WriteString(t)
	}
	return b.String()
}

func cleanTag(tok string) string {
	return tagStripRe.ReplaceAllString(tok, "")
}

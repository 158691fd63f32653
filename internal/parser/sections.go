// Package parser extracts PROS_A/CONS_A/PROS_B/CONS_B item lists from
// free-form generated text.
package parser

import (
	"strings"

	"decision-service/internal/models"
)

// Section keys as they appear in generated text, each followed by a colon.
const (
	KeyProsA = "PROS_A"
	KeyConsA = "CONS_A"
	KeyProsB = "PROS_B"
	KeyConsB = "CONS_B"
)

// ItemDelimiter separates items inside a section.
const ItemDelimiter = "|"

// Keys lists the section keys.
var Keys = []string{KeyProsA, KeyConsA, KeyProsB, KeyConsB}

type marker struct {
	key    string
	offset int // position of the key
	body   int // first byte after "KEY:"
}

// Parse never fails: absent keys, keys without a colon and empty input all
// yield empty sections. Keys may appear in any order. A section runs from
// the first "KEY:" to the next "OTHER:" marker, so a literal marker inside
// an item cuts that item short.
func Parse(raw string) models.ParsedSections {
	markers := scan(raw)

	out := models.EmptySections()
	out.ProsA = extract(raw, KeyProsA, markers)
	out.ConsA = extract(raw, KeyConsA, markers)
	out.ProsB = extract(raw, KeyProsB, markers)
	out.ConsB = extract(raw, KeyConsB, markers)
	return out
}

// scan finds every "KEY:" occurrence in one pass, in offset order.
func scan(raw string) []marker {
	var found []marker
	for i := 0; i < len(raw); i++ {
		for _, key := range Keys {
			if strings.HasPrefix(raw[i:], key+":") {
				found = append(found, marker{key: key, offset: i, body: i + len(key) + 1})
				break
			}
		}
	}
	return found
}

// extract returns the items of key, or an empty list if the key is missing
// or anything goes wrong while slicing.
func extract(raw, key string, markers []marker) (items []string) {
	defer func() {
		if r := recover(); r != nil {
			items = []string{}
		}
	}()

	start := -1
	for _, m := range markers {
		if m.key == key {
			start = m.body
			break
		}
	}
	if start < 0 {
		return []string{}
	}

	end := len(raw)
	for _, m := range markers {
		if m.key != key && m.offset >= start {
			end = m.offset
			break
		}
	}

	return splitItems(raw[start:end])
}

func splitItems(body string) []string {
	items := []string{}
	for _, piece := range strings.Split(body, ItemDelimiter) {
		piece = strings.TrimSpace(piece)
		piece = strings.TrimSpace(strings.TrimRight(piece, ";,"))
		if piece != "" {
			items = append(items, piece)
		}
	}
	return items
}

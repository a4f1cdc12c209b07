// Package tagset derives the tag universe from a note collection.
package tagset

import (
	"github.com/samber/lo"

	"github.com/starford/hashnotes/internal/models"
)

// Aggregate returns every distinct tag across notes, in the order each tag is
// first seen when walking notes (and their tags) in order. The result is
// never nil.
func Aggregate(notes []models.Note) []string {
	all := lo.FlatMap(notes, func(n models.Note, _ int) []string {
		return n.Tags
	})
	out := lo.Uniq(all)
	if out == nil {
		return []string{}
	}
	return out
}

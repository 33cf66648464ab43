package model

import "strings"

// Genre is a named category shared by many movies.  Names are unique
// without regard to letter case.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
}

// NormalizeGenreName returns the comparison key for a genre name.
func NormalizeGenreName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UniqueGenreNames trims the given names, drops blanks and collapses
// names that differ only by case.  The first spelling wins and input
// order is kept.
func UniqueGenreNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := NormalizeGenreName(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// PlanGenreToggle works out the association changes for a movie update.
// Every requested name that is already attached to the movie is removed,
// every other name is added.  Callers that want to keep an association
// must leave it out of the request.
func PlanGenreToggle(current []Genre, names []string) (remove []Genre, add []string) {
	attached := make(map[string]Genre, len(current))
	for _, g := range current {
		attached[NormalizeGenreName(g.Name)] = g
	}
	for _, n := range UniqueGenreNames(names) {
		if g, ok := attached[NormalizeGenreName(n)]; ok {
			remove = append(remove, g)
			continue
		}
		add = append(add, n)
	}
	return remove, add
}

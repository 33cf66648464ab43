package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueGenreNames(t *testing.T) {
	got := UniqueGenreNames([]string{" Drama ", "drama", "", "Action", "ACTION", "  "})
	assert.Equal(t, []string{"Drama", "Action"}, got)
}

func TestPlanGenreToggle(t *testing.T) {
	current := []Genre{{ID: 1, Name: "Drama"}, {ID: 2, Name: "Comedy"}}

	remove, add := PlanGenreToggle(current, []string{"drama", "Horror"})
	assert.Equal(t, []Genre{{ID: 1, Name: "Drama"}}, remove)
	assert.Equal(t, []string{"Horror"}, add)

	remove, add = PlanGenreToggle(nil, []string{"Drama"})
	assert.Empty(t, remove)
	assert.Equal(t, []string{"Drama"}, add)

	// a name repeated with a different case toggles once
	remove, add = PlanGenreToggle(current, []string{"COMEDY", "comedy"})
	assert.Equal(t, []Genre{{ID: 2, Name: "Comedy"}}, remove)
	assert.Empty(t, add)
}

func TestMoviePatchEmpty(t *testing.T) {
	assert.True(t, MoviePatch{}.Empty())
	r := 3
	assert.False(t, MoviePatch{Rating: &r}.Empty())
	assert.False(t, MoviePatch{Genres: []string{"x"}}.Empty())
}

package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Clone(t *testing.T) {
	orig := Record{
		ISBN:       "9780134685991",
		Title:      "Effective Java",
		Authors:    []string{"Joshua Bloch"},
		Categories: []string{},
		Publisher:  StrPtr("Addison-Wesley"),
		PageCount:  IntPtr(412),
	}

	c := orig.Clone()
	assert.Equal(t, orig, c)

	c.Authors[0] = "someone else"
	*c.Publisher = "Pearson"
	*c.PageCount = 1
	c.Categories = append(c.Categories, "Programming")

	assert.Equal(t, "Joshua Bloch", orig.Authors[0])
	assert.Equal(t, "Addison-Wesley", *orig.Publisher)
	assert.Equal(t, 412, *orig.PageCount)
	assert.Empty(t, orig.Categories)
}

func TestRecord_CloneKeepsNil(t *testing.T) {
	c := Record{Title: "Dune"}.Clone()
	assert.Nil(t, c.Authors)
	assert.Nil(t, c.Subtitle)
	assert.Nil(t, c.AverageRating)
}

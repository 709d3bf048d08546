package models

import (
	"fmt"

	"github.com/desertthunder/boardsync/internal/shared"
)

// Category is a fixed work classification.
type Category int

const (
	CategoryDesign Category = iota
	CategoryCoding
	CategoryDocsTraining
	CategoryOutResearch
	CategoryQA
	categoryCount
)

var categoryNames = [categoryCount]string{
	CategoryDesign:       "design",
	CategoryCoding:       "coding",
	CategoryDocsTraining: "docs-training",
	CategoryOutResearch:  "out-research",
	CategoryQA:           "qa",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	cats := make([]Category, categoryCount)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

func (c Category) String() string {
	if c < 0 || c >= categoryCount {
		return ""
	}
	return categoryNames[c]
}

// ParseCategory resolves a category by name.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return -1, fmt.Errorf("%w: unknown category %q", shared.ErrInvalidInput, name)
}

// ContainsCategory reports whether cats holds c.
func ContainsCategory(cats []Category, c Category) bool {
	for _, existing := range cats {
		if existing == c {
			return true
		}
	}
	return false
}

package model

import (
	"slices"
	"strings"
)

// FeaturedMinPrice is the lowest price at which an available product is featured.
const FeaturedMinPrice = 1000

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	Available  bool       `json:"available"`
	Categories []Category `json:"categories"`
}

// ProductPatch carries the fields of a partial update. A nil field was absent
// from the payload and must be left untouched.
type ProductPatch struct {
	Name       *string
	Price      *float64
	Available  *bool
	Categories *[]Category
}

func (p Product) IsFeatured() bool {
	return p.Available && p.Price >= FeaturedMinPrice
}

// HasCategory reports whether any category name equals name, ignoring case.
func (p Product) HasCategory(name string) bool {
	key := CategoryKey(name)
	for _, c := range p.Categories {
		if CategoryKey(c.Name) == key {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no category storage with p.
func (p Product) Clone() Product {
	p.Categories = CloneCategories(p.Categories)
	return p
}

// Apply writes every field present in patch onto p.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Available != nil {
		p.Available = *patch.Available
	}
	if patch.Categories != nil {
		p.Categories = CloneCategories(*patch.Categories)
	}
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Available == nil && p.Categories == nil
}

// CloneCategories never returns nil so products always encode "categories": [].
func CloneCategories(in []Category) []Category {
	if in == nil {
		return []Category{}
	}
	return slices.Clone(in)
}

// CategoryKey is the case-folded form used for category name lookups.
func CategoryKey(name string) string {
	return strings.ToLower(name)
}

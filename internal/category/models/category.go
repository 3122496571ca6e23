// Package models holds the catalog entities.
package models

type Category struct {
	ID            string
	Name          string
	ReviewsCount  int
	Subcategories []Subcategory
}

type Subcategory struct {
	ID           string
	CategoryID   string
	Name         string
	ReviewsCount int
}

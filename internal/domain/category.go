package domain

import "time"

// DefaultCategoryColor is the neutral gray applied when no color is given.
const DefaultCategoryColor = "#6B7280"

// Category is an admin-defined label used to classify tickets.
// Categories are soft-deleted: Active=false keeps referencing tickets intact.
type Category struct {
	ID          string
	Name        string
	Description *string
	Color       string
	Active      bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

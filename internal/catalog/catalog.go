// Package catalog models the activity catalog: the reference entries that
// describe how a reported activity converts into credits and what evidence it
// requires. Entries are managed externally; this module only reads them.
package catalog

import (
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
)

// Category is the closed set of activity categories a credit rule may cap.
type Category string

const (
	CategoryCourse     Category = "KhoaHoc"
	CategoryConference Category = "HoiThao"
	CategoryResearch   Category = "NghienCuu"
	CategoryTraining   Category = "DaoTao"
	// CategoryOther buckets submissions without a catalog entry and entries
	// outside the named categories.
	CategoryOther Category = "Khac"
)

// Categories lists all valid categories in stable display order.
func Categories() []Category {
	return []Category{
		CategoryCourse,
		CategoryConference,
		CategoryResearch,
		CategoryTraining,
		CategoryOther,
	}
}

// ParseCategory validates a raw category value at the load boundary.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	switch c {
	case CategoryCourse, CategoryConference, CategoryResearch, CategoryTraining, CategoryOther:
		return c, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown activity category %q", raw)
}

// Entry describes one activity type in the catalog.
type Entry struct {
	ID               id.CatalogID
	Name             string
	Category         Category
	ConversionRate   float64
	MinHours         *float64
	MaxHours         *float64
	RequiresEvidence bool
}

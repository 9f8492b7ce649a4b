package domain

import "time"

// ChangelogCategory classifies a changelog entry.
type ChangelogCategory string

const (
	ChangelogCategoryAdded   ChangelogCategory = "added"
	ChangelogCategoryChanged ChangelogCategory = "changed"
	ChangelogCategoryFixed   ChangelogCategory = "fixed"
)

// ValidChangelogCategory reports whether the category is known.
func ValidChangelogCategory(c ChangelogCategory) bool {
	return c == ChangelogCategoryAdded || c == ChangelogCategoryChanged || c == ChangelogCategoryFixed
}

// ChangelogEntry is a release note line inserted by release tooling.
type ChangelogEntry struct {
	ID         string
	Version    string
	ReleasedOn time.Time
	Category   ChangelogCategory
	Message    string
	CreatedAt  time.Time
}

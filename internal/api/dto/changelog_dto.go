package dto

import (
	"time"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/service"
)

// ChangelogEntryResponse is one release note line.
type ChangelogEntryResponse struct {
	ID       string                   `json:"id"`
	Category domain.ChangelogCategory `json:"category"`
	Message  string                   `json:"message"`
}

// ChangelogReleaseResponse groups entries under one version.
type ChangelogReleaseResponse struct {
	Version    string                   `json:"version"`
	ReleasedOn time.Time                `json:"released_on"`
	Entries    []ChangelogEntryResponse `json:"entries"`
}

// NewChangelogReleaseResponse maps a grouped release.
func NewChangelogReleaseResponse(rel service.Release) ChangelogReleaseResponse {
	resp := ChangelogReleaseResponse{
		Version:    rel.Version,
		ReleasedOn: rel.ReleasedOn,
		Entries:    make([]ChangelogEntryResponse, 0, len(rel.Entries)),
	}
	for _, entry := range rel.Entries {
		resp.Entries = append(resp.Entries, ChangelogEntryResponse{
			ID:       entry.ID,
			Category: entry.Category,
			Message:  entry.Message,
		})
	}
	return resp
}

// ChangelogAddRequest inserts a new entry. Version may be empty, in which
// case the current version is bumped by the named component.
type ChangelogAddRequest struct {
	Version    string                   `json:"version"`
	ReleasedOn *time.Time               `json:"released_on"`
	Category   domain.ChangelogCategory `json:"category"`
	Message    string                   `json:"message"`
	Bump       string                   `json:"bump"`
}

// VersionResponse is the current published version.
type VersionResponse struct {
	Version string `json:"version"`
}

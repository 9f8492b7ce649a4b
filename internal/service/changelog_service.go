package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/exemption-service/internal/domain"
	"github.com/spec-kit/exemption-service/internal/repository"
	"github.com/spec-kit/exemption-service/internal/version"
	apperrors "github.com/spec-kit/exemption-service/pkg/util"
)

const (
	changelogCacheKey = "changelog:releases"
	changelogCacheTTL = 5 * time.Minute
)

// Release groups all changelog entries published under one version.
type Release struct {
	Version    string                  `json:"version"`
	ReleasedOn time.Time               `json:"released_on"`
	Entries    []domain.ChangelogEntry `json:"entries"`
}

// ChangelogService serves the public release-notes page and the admin
// insert path used by release tooling.
type ChangelogService struct {
	entries repository.ChangelogRepository
	redis   *redis.Client
	logger  *zap.Logger
}

// NewChangelogService constructs the service. redisClient may be nil; the
// listing then always reads through to Postgres.
func NewChangelogService(entries repository.ChangelogRepository, redisClient *redis.Client, logger *zap.Logger) *ChangelogService {
	return &ChangelogService{entries: entries, redis: redisClient, logger: logger}
}

// Releases returns entries grouped by version, newest release first. Results
// are cached for a few minutes since the page is public and write traffic is
// release-driven.
func (s *ChangelogService) Releases(ctx context.Context) ([]Release, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	all, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Release)
	var order []string
	for _, entry := range all {
		rel, ok := byVersion[entry.Version]
		if !ok {
			rel = &Release{Version: entry.Version, ReleasedOn: entry.ReleasedOn}
			byVersion[entry.Version] = rel
			order = append(order, entry.Version)
		}
		rel.Entries = append(rel.Entries, entry)
	}

	releases := make([]Release, 0, len(order))
	for _, v := range order {
		releases = append(releases, *byVersion[v])
	}
	sort.SliceStable(releases, func(i, j int) bool {
		vi, vj := version.Parse(releases[i].Version), version.Parse(releases[j].Version)
		if c := vi.Compare(vj); c != 0 {
			return c > 0
		}
		return releases[i].ReleasedOn.After(releases[j].ReleasedOn)
	})

	s.toCache(ctx, releases)
	return releases, nil
}

// CurrentVersion returns the newest published version, falling back to the
// default when nothing has been published yet.
func (s *ChangelogService) CurrentVersion(ctx context.Context) (string, error) {
	latest, err := s.entries.LatestVersion(ctx)
	if err != nil {
		return "", err
	}
	return version.Parse(latest).String(), nil
}

// AddInput is one entry submitted by the admin console or release tooling.
type AddInput struct {
	Version    string
	ReleasedOn time.Time
	Category   domain.ChangelogCategory
	Message    string
	// Bump, when Version is empty, increments the current version by the
	// named component ("major", "minor", anything else is patch).
	Bump string
}

// Add inserts a changelog entry and invalidates the release cache.
func (s *ChangelogService) Add(ctx context.Context, in AddInput) (*domain.ChangelogEntry, error) {
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	if !domain.ValidChangelogCategory(in.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": in.Category})
	}

	ver := strings.TrimSpace(in.Version)
	if ver == "" {
		latest, err := s.entries.LatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		ver = version.Parse(latest).Increment(in.Bump).String()
	} else if !version.Valid(ver) {
		return nil, apperrors.NewValidationError("version must be major.minor.patch", map[string]any{"version": ver})
	}

	releasedOn := in.ReleasedOn
	if releasedOn.IsZero() {
		releasedOn = time.Now().UTC().Truncate(24 * time.Hour)
	}

	entry := &domain.ChangelogEntry{
		Version:    ver,
		ReleasedOn: releasedOn,
		Category:   in.Category,
		Message:    in.Message,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return entry, nil
}

func (s *ChangelogService) fromCache(ctx context.Context) ([]Release, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, changelogCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var releases []Release
	if err := json.Unmarshal(raw, &releases); err != nil {
		return nil, false
	}
	return releases, true
}

func (s *ChangelogService) toCache(ctx context.Context, releases []Release) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(releases)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, changelogCacheKey, raw, changelogCacheTTL).Err(); err != nil {
		s.logger.Warn("changelog cache write failed", zap.Error(err))
	}
}

func (s *ChangelogService) invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, changelogCacheKey).Err(); err != nil {
		s.logger.Warn("changelog cache invalidation failed", zap.Error(err))
	}
}

// Package settings caches the backend's site settings for page rendering and
// serves the admin settings screen.
package settings

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mutualsplus/site/internal/models"
	"github.com/mutualsplus/site/internal/pkg/cron"
)

const RefreshInterval = 10 * time.Minute

// Backend is the part of the API client the settings cache needs.
type Backend interface {
	ListSettings(ctx context.Context) ([]models.SiteSetting, error)
}

// Fallback lists used when the backend has no value for a well-known key.
var (
	DefaultArticleCategories = []string{"Music", "Fashion", "Culture", "Art", "Interviews", models.CategorySelectPlus}
	DefaultContactCategories = []string{"General", "Partnerships", "Press", "Events", "Shop"}
	DefaultEventTypes        = []string{"Party", "Showcase", "Listening Session", "Pop-up"}
)

// Service holds the last fetched settings. Reads never block on the backend.
type Service struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.RWMutex
	byKey    map[string]models.SiteSetting
	loadedAt time.Time
}

func NewService(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend: backend,
		logger:  logger.Named("settings"),
		byKey:   map[string]models.SiteSetting{},
	}
}

// Refresh replaces the cache with the backend's current settings. On failure
// the previous values stay in place.
func (s *Service) Refresh(ctx context.Context) error {
	list, err := s.backend.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("refresh settings: %w", err)
	}
	byKey := make(map[string]models.SiteSetting, len(list))
	for _, st := range list {
		byKey[st.Key] = st
	}
	s.mu.Lock()
	s.byKey = byKey
	s.loadedAt = time.Now()
	s.mu.Unlock()
	s.logger.Debug("settings refreshed", zap.Int("count", len(list)))
	return nil
}

// Store puts a single updated setting into the cache.
func (s *Service) Store(st models.SiteSetting) {
	s.mu.Lock()
	s.byKey[st.Key] = st
	s.mu.Unlock()
}

// Get returns the cached setting for key.
func (s *Service) Get(key string) (models.SiteSetting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byKey[key]
	return st, ok
}

// Text returns the setting's raw value, or fallback when unset.
func (s *Service) Text(key, fallback string) string {
	if st, ok := s.Get(key); ok && st.Value != "" {
		return st.Value
	}
	return fallback
}

// List returns the setting as a list, or fallback when unset or empty.
func (s *Service) List(key string, fallback []string) []string {
	if st, ok := s.Get(key); ok {
		if l := st.StringList(); len(l) > 0 {
			return l
		}
	}
	return fallback
}

// All returns every cached setting sorted by key.
func (s *Service) All() []models.SiteSetting {
	s.mu.RLock()
	out := make([]models.SiteSetting, 0, len(s.byKey))
	for _, st := range s.byKey {
		out = append(out, st)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LoadedAt reports when the cache was last filled.
func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Service) ArticleCategories() []string {
	return s.List(models.SettingArticleCategories, DefaultArticleCategories)
}

func (s *Service) ContactCategories() []string {
	return s.List(models.SettingContactCategories, DefaultContactCategories)
}

func (s *Service) EventTypes() []string {
	return s.List(models.SettingEventTypes, DefaultEventTypes)
}

// RefreshJob schedules Refresh on the cron scheduler.
func (s *Service) RefreshJob() cron.Job {
	return cron.Job{
		Name:        "settings.refresh",
		Description: "Reload site settings from the backend",
		Interval:    RefreshInterval,
		RunOnStart:  true,
		Fn:          s.Refresh,
	}
}

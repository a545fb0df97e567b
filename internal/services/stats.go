package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chalense/muni-laip/internal/models"
	"github.com/chalense/muni-laip/internal/pkg"
	"github.com/chalense/muni-laip/internal/repository"
)

const (
	statsCacheKey = "stats:portal"
	statsCacheTTL = 5 * time.Minute
)

// DomainStatistics is the per-domain slice of the portal snapshot.
type DomainStatistics struct {
	Domain         string                      `json:"domain"`
	Documents      int64                       `json:"documents"`
	Folders        int64                       `json:"folders"`
	Downloads      int64                       `json:"downloads"`
	ByExtension    []repository.ExtensionCount `json:"byExtension"`
	ByCategory     []repository.CategoryCount  `json:"byCategory"`
	MostDownloaded []*models.Document          `json:"mostDownloaded"`
}

// PortalStatistics is the public transparency snapshot: document and download
// totals per domain plus the request lifecycle counts.
type PortalStatistics struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	Domains     []DomainStatistics        `json:"domains"`
	Requests    *models.RequestStatistics `json:"requests"`
}

// StatsService aggregates the portal-wide statistics, cached in Redis because
// the snapshot fans out into a dozen aggregations.
type StatsService struct {
	domainRepos map[string]*repository.DomainRepositories
	requests    *RequestService
	redis       *redis.Client
	logger      *pkg.Logger
}

// NewStatsService creates a new stats service. The redis client may be nil, in
// which case every call recomputes.
func NewStatsService(domainRepos map[string]*repository.DomainRepositories, requests *RequestService, redisClient *redis.Client, logger *pkg.Logger) *StatsService {
	return &StatsService{
		domainRepos: domainRepos,
		requests:    requests,
		redis:       redisClient,
		logger:      logger,
	}
}

// GetPortalStatistics returns the snapshot, optionally scoped to one category.
// Only the unscoped snapshot is cached; a filtered one is served from the
// aggregations directly.
func (s *StatsService) GetPortalStatistics(ctx context.Context, categoryID *primitive.ObjectID) (*PortalStatistics, error) {
	if categoryID != nil {
		return s.compute(ctx, categoryID)
	}

	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.compute(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, stats)
	return stats, nil
}

// Invalidate drops the cached snapshot; called after staff mutations.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate stats cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *StatsService) compute(ctx context.Context, categoryID *primitive.ObjectID) (*PortalStatistics, error) {
	stats := &PortalStatistics{GeneratedAt: time.Now()}

	for _, domain := range models.AllDomains {
		repos, ok := s.domainRepos[domain.Name]
		if !ok {
			continue
		}

		var documents, folders int64
		var err error
		if categoryID != nil {
			documents, err = repos.Document.CountPublishedByCategory(ctx, *categoryID)
			if err != nil {
				return nil, err
			}
			folders, err = repos.Folder.CountByCategory(ctx, *categoryID)
		} else {
			documents, err = repos.Document.CountPublished(ctx)
			if err != nil {
				return nil, err
			}
			folders, err = repos.Folder.CountAll(ctx)
		}
		if err != nil {
			return nil, err
		}

		downloads, err := repos.Document.TotalDownloads(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		byExtension, err := repos.Document.CountByExtension(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		byCategory, err := repos.Document.CountByCategory(ctx)
		if err != nil {
			return nil, err
		}
		mostDownloaded, err := repos.Document.ListMostDownloaded(ctx, 5)
		if err != nil {
			return nil, err
		}

		stats.Domains = append(stats.Domains, DomainStatistics{
			Domain:         domain.Name,
			Documents:      documents,
			Folders:        folders,
			Downloads:      downloads,
			ByExtension:    byExtension,
			ByCategory:     byCategory,
			MostDownloaded: mostDownloaded,
		})
	}

	requestStats, err := s.requests.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	stats.Requests = requestStats

	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context) *PortalStatistics {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("stats cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}

	var stats PortalStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("stats cache entry corrupted", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, stats *PortalStatistics) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
		s.logger.Warn("stats cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

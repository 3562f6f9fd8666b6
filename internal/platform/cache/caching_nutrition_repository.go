// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"calorie_backend/internal/feature/foodrecognition/domain/entity"
	"calorie_backend/internal/feature/foodrecognition/usecase"
)

// CachingNutritionRepository decorates a NutritionRepository with Redis caching.
// Only hits are cached; misses always reach the inner repository.
type CachingNutritionRepository struct {
	inner     usecase.NutritionRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.NutritionRepository = (*CachingNutritionRepository)(nil)

// cachedNutrition is the JSON form stored in Redis. nil means the value is unknown.
type cachedNutrition struct {
	CanonicalName string   `json:"canonical_name"`
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Fat           *float64 `json:"fat"`
	Carbohydrates *float64 `json:"carbohydrates"`
}

// NewCachingNutritionRepository decorates a NutritionRepository with Redis caching.
// If ttl is 0, it defaults to 1 hour. If namespace is empty, it uses "nutrition".
func NewCachingNutritionRepository(rdb *redis.Client, ttl time.Duration, inner usecase.NutritionRepository, namespace string) *CachingNutritionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "nutrition"
	}
	return &CachingNutritionRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindByCanonicalName checks the cache first then falls back to the inner repository.
func (c *CachingNutritionRepository) FindByCanonicalName(ctx context.Context, canonicalName string) (*entity.NutritionRecord, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindByCanonicalName(ctx, canonicalName)
	}

	key := c.cacheKey(canonicalName)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cached cachedNutrition
		if err := json.Unmarshal(b, &cached); err == nil {
			return fromCache(cached), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to inner repository
	rec, err := c.inner.FindByCanonicalName(ctx, canonicalName)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(toCache(rec)); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return rec, nil
}

// Invalidate removes cached entries for the given names. Used after ingest.
func (c *CachingNutritionRepository) Invalidate(ctx context.Context, canonicalNames ...string) error {
	if c.rdb == nil || len(canonicalNames) == 0 {
		return nil
	}
	keys := make([]string, 0, len(canonicalNames))
	for _, n := range canonicalNames {
		keys = append(keys, c.cacheKey(n))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *CachingNutritionRepository) cacheKey(canonicalName string) string {
	return c.namespace + ":" + safe(canonicalName)
}

func toCache(r *entity.NutritionRecord) cachedNutrition {
	return cachedNutrition{
		CanonicalName: r.CanonicalName,
		Calories:      r.Calories.Float(),
		Protein:       r.Protein.Float(),
		Fat:           r.Fat.Float(),
		Carbohydrates: r.Carbohydrates.Float(),
	}
}

func fromCache(c cachedNutrition) *entity.NutritionRecord {
	return &entity.NutritionRecord{
		CanonicalName: c.CanonicalName,
		Calories:      nutrient(c.Calories),
		Protein:       nutrient(c.Protein),
		Fat:           nutrient(c.Fat),
		Carbohydrates: nutrient(c.Carbohydrates),
	}
}

func nutrient(v *float64) entity.Nutrient {
	if v == nil {
		return entity.UnknownNutrient()
	}
	return entity.KnownNutrient(*v)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

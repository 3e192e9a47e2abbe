package concept

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/ports"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/circuit"
	pstrings "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/strings"
)

var termCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mrcm_concept_term_cache_lookups_total",
	Help: "Concept term cache lookups by result",
}, []string{"result"}) // hit, miss, error, bypass

const termKeyPrefix = "mrcm:terms:"

// RedisCache is a read-through cache in front of another ConceptStore. Entries are
// keyed by branch path and view timepoint, so a new commit never reads terms cached
// for an older state of the branch. Redis failures fall back to the backing store, and
// a run of failures bypasses Redis until a probe succeeds.
type RedisCache struct {
	client  *redis.Client
	next    ports.ConceptStore
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type CacheOption func(*RedisCache)

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *RedisCache) {
		c.breaker = b
	}
}

func NewRedisCache(client *redis.Client, next ports.ConceptStore, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &RedisCache{
		client:  client,
		next:    next,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("concept-term-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) FindTerms(ctx context.Context, view vmodels.View, conceptIDs []string) (map[string]models.TermSet, error) {
	ids := pstrings.SortedSet(conceptIDs)
	out := make(map[string]models.TermSet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	if !c.breaker.Allow() {
		termCacheLookups.WithLabelValues("bypass").Add(float64(len(ids)))
		return c.next.FindTerms(ctx, view, ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = termKey(view, id)
	}
	missing := ids
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		termCacheLookups.WithLabelValues("error").Inc()
		c.recordFailure(ctx, "concept term cache read failed", view, err)
	} else {
		c.recordSuccess(ctx)
		missing = nil
		for i, value := range values {
			raw, ok := value.(string)
			var terms models.TermSet
			if !ok || json.Unmarshal([]byte(raw), &terms) != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = terms
		}
		termCacheLookups.WithLabelValues("hit").Add(float64(len(ids) - len(missing)))
		termCacheLookups.WithLabelValues("miss").Add(float64(len(missing)))
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.FindTerms(ctx, view, missing)
	if err != nil {
		return nil, err
	}
	if c.breaker.Allow() {
		if err := c.store(ctx, view, fetched); err != nil {
			c.recordFailure(ctx, "concept term cache write failed", view, err)
		}
	}
	for id, terms := range fetched {
		out[id] = terms
	}
	return out, nil
}

func (c *RedisCache) store(ctx context.Context, view vmodels.View, terms map[string]models.TermSet) error {
	if len(terms) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, set := range terms {
		payload, err := json.Marshal(set)
		if err != nil {
			return err
		}
		pipe.Set(ctx, termKey(view, id), payload, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (c *RedisCache) recordFailure(ctx context.Context, msg string, view vmodels.View, err error) {
	c.logger.WarnContext(ctx, msg, "branch", view.Path, "error", err)
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "concept term cache bypassed", "breaker", c.breaker.Name())
	}
}

func (c *RedisCache) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "concept term cache restored", "breaker", c.breaker.Name())
	}
}

func termKey(view vmodels.View, conceptID string) string {
	return termKeyPrefix + view.Path + ":" + strconv.FormatInt(view.Timepoint.UnixMilli(), 10) + ":" + conceptID
}

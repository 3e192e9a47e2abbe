// Package redis connects the concept term cache to Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
)

// Client is the connection pool behind the concept term cache.
type Client struct {
	*redis.Client
}

// Options turns the cache configuration into go-redis options. Zero values keep the
// go-redis defaults.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize < 0 || cfg.MinIdleConns < 0 {
		return nil, errors.New("redis pool sizes must not be negative")
	}
	if cfg.PoolSize > 0 && cfg.MinIdleConns > cfg.PoolSize {
		return nil, fmt.Errorf("redis min idle connections %d exceed pool size %d", cfg.MinIdleConns, cfg.PoolSize)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// New connects to Redis and checks the connection. It returns nil, nil when no URL is
// configured, in which case terms are read from the backing store only.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Health pings Redis within the dial timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.Options().DialTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.Options().Addr, err)
	}
	return nil
}

// Close releases the pool.
func (c *Client) Close() error {
	return c.Client.Close()
}

// Collector exposes the pool statistics as Prometheus metrics.
func (c *Client) Collector() prometheus.Collector {
	return &poolCollector{client: c.Client}
}

var (
	poolHitsDesc     = prometheus.NewDesc("mrcm_term_cache_pool_hits_total", "Times a free connection was found in the term cache pool", nil, nil)
	poolMissesDesc   = prometheus.NewDesc("mrcm_term_cache_pool_misses_total", "Times a new connection had to be dialed for the term cache", nil, nil)
	poolTimeoutsDesc = prometheus.NewDesc("mrcm_term_cache_pool_timeouts_total", "Times a term cache command waited too long for a connection", nil, nil)
	poolTotalDesc    = prometheus.NewDesc("mrcm_term_cache_pool_connections", "Open term cache connections", nil, nil)
	poolIdleDesc     = prometheus.NewDesc("mrcm_term_cache_pool_idle_connections", "Idle term cache connections", nil, nil)
)

type poolCollector struct {
	client *redis.Client
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolHitsDesc
	ch <- poolMissesDesc
	ch <- poolTimeoutsDesc
	ch <- poolTotalDesc
	ch <- poolIdleDesc
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := p.client.PoolStats()
	ch <- prometheus.MustNewConstMetric(poolHitsDesc, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(poolMissesDesc, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(poolTimeoutsDesc, prometheus.CounterValue, float64(stats.Timeouts))
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(stats.TotalConns))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(stats.IdleConns))
}

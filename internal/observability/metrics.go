// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestead_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homestead_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestead_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// SignIns counts credential sign-in attempts by outcome.
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestead_signins_total",
		Help: "Total number of sign-in attempts by outcome",
	}, []string{"outcome"})

	// Uploads counts media uploads by result.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestead_uploads_total",
		Help: "Total number of media uploads by result",
	}, []string{"result"})

	// UploadBytes records accepted upload sizes.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "homestead_upload_bytes",
		Help:    "Size of accepted uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16<<10, 2, 9),
	})

	// SiteGateRejections counts requests refused by the site-wide basic auth gate.
	SiteGateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestead_site_gate_rejections_total",
		Help: "Total number of requests rejected by the site gate",
	})
)

const startedAtKey = "homestead:query_started_at"

// InstrumentGorm registers callbacks that record query latency per operation
// and table on DatabaseQueryLatency.
func InstrumentGorm(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("metrics:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("metrics:after_create", a)
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("metrics:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("metrics:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("metrics:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("metrics:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("metrics:after_raw", a)
		}},
	}
	for _, s := range steps {
		if err := s.register(before, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}

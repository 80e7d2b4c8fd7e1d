// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcraft_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fitcraft_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SignupsTotal counts completed signups.
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitcraft_signups_total",
		Help: "Total number of accounts created",
	})

	// LoginsTotal counts login attempts by result.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcraft_logins_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// PostsCreatedTotal counts created posts.
	PostsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitcraft_posts_created_total",
		Help: "Total number of posts created",
	})

	// BlobBytesWritten counts bytes written to the blob store by kind (avatar, post).
	BlobBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitcraft_blob_bytes_written_total",
		Help: "Total bytes written to the blob store",
	}, []string{"kind"})
)

const queryStartKey = "fitcraft:query_start"

// RegisterGormMetrics installs callbacks that record query latency for every GORM operation.
func RegisterGormMetrics(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			began, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(began).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", after)
		}},
		{"query", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", after)
		}},
		{"update", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", after)
		}},
		{"delete", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", after)
		}},
		{"raw", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(name+":after", after)
		}},
	}

	for _, step := range steps {
		if err := step.register("metrics:"+step.op, start, finish(step.op)); err != nil {
			return err
		}
	}
	return nil
}

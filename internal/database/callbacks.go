package database

import (
	"time"

	"artfeed/internal/observability"

	"gorm.io/gorm"
)

const startedAtKey = "artfeed:started_at"

// observeQuery is swapped in tests.
var observeQuery = observability.ObserveQuery

// RegisterMetricsCallbacks records per-statement latency in
// artfeed_database_query_latency_seconds, labelled by operation and table.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	ops := []struct {
		name   string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, op := range ops {
		if err := op.before("metrics:before_"+op.name, markStart); err != nil {
			return err
		}
		if err := op.after("metrics:after_"+op.name, func(tx *gorm.DB) {
			observeStatement(tx, op.name)
		}); err != nil {
			return err
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startedAtKey, time.Now())
}

func observeStatement(tx *gorm.DB, operation string) {
	v, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	table := "unknown"
	if tx.Statement != nil && tx.Statement.Table != "" {
		table = tx.Statement.Table
	}
	observeQuery(operation, table, start)
}

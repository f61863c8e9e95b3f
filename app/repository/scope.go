package repository

import (
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const defaultListLimit = 15

func limitOrDefault(opts ListOptions) int {
	if opts.Limit <= 0 {
		return defaultListLimit
	}
	return opts.Limit
}

func orderOrDefault(opts ListOptions) string {
	if opts.OrderBy == "" {
		return "created_at DESC"
	}
	return opts.OrderBy
}

// PlatformRepositories gives unfiltered access to tenant-owned entities for
// platform-level work (retention cleanup, webhook reconciliation). There is
// exactly one way to obtain it and every construction is audit-logged, so
// unscoped access is always an explicit, visible decision.
type PlatformRepositories struct {
	db *gorm.DB
}

// Unscoped opens platform-level access. The reason appears in the audit log.
func Unscoped(db *gorm.DB, reason string) *PlatformRepositories {
	log.Warnf("[Repository] unscoped data access opened: %s", reason)
	return &PlatformRepositories{db: db}
}

// DB exposes the raw handle for platform-level queries.
func (p *PlatformRepositories) DB() *gorm.DB {
	return p.db
}

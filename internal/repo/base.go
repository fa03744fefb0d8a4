package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the common core of the catalog, order and inbox repositories. It
// owns the GORM handle and rebinding it for transactional use.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps a GORM connection, which may be a transaction handle.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

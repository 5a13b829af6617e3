package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by domain repositories to share connection handling.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn returns the connection without a bound context.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// FirstOrNil runs query.First and maps a missing row to (nil, nil).
func FirstOrNil[T any](query *gorm.DB) (*T, error) {
	var row T
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY, name TEXT)`).Error)
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	assert.Same(t, db, base.Conn())
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	//nolint:staticcheck // nil context returns the raw connection
	assert.Same(t, db, base.DB(nil))
}

func TestFirstOrNil(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&widget{ID: "w1", Name: "first"}).Error)

	got, err := FirstOrNil[widget](db.Where("id = ?", "w1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name)

	missing, err := FirstOrNil[widget](db.Where("id = ?", "nope"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

package ormhook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"graphql-cascade/internal/changelog"
	"graphql-cascade/internal/tracker"
)

type Note struct {
	ID   string `gorm:"primaryKey"`
	Body string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Note{}))
	require.NoError(t, db.Use(New(nil)))
	return db
}

func openTransaction(t *testing.T) *tracker.Transaction {
	t.Helper()
	tx, err := tracker.New(tracker.DefaultConfig(), nil).Begin()
	require.NoError(t, err)
	return tx
}

func TestPlugin_Create(t *testing.T) {
	db := openDB(t)
	tx := openTransaction(t)
	ctx := tracker.WithTransaction(context.Background(), tx)

	require.NoError(t, db.WithContext(ctx).Create(&Note{ID: "n1", Body: "hello"}).Error)

	data, err := tx.End()
	require.NoError(t, err)
	require.Len(t, data.Updated, 1)
	assert.Equal(t, "Note", data.Updated[0].Key.Typename)
	assert.Equal(t, "n1", data.Updated[0].Key.ID)
	assert.Equal(t, changelog.OpCreated, data.Updated[0].Operation)
}

func TestPlugin_BatchCreate(t *testing.T) {
	db := openDB(t)
	tx := openTransaction(t)
	ctx := tracker.WithTransaction(context.Background(), tx)

	notes := []Note{{ID: "a"}, {ID: "b"}}
	require.NoError(t, db.WithContext(ctx).Create(&notes).Error)

	data, err := tx.End()
	require.NoError(t, err)
	require.Len(t, data.Updated, 2)
	assert.Equal(t, "a", data.Updated[0].Key.ID)
	assert.Equal(t, "b", data.Updated[1].Key.ID)
}

func TestPlugin_UpdateAndDelete(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&Note{ID: "n1", Body: "old"}).Error)

	tx := openTransaction(t)
	ctx := tracker.WithTransaction(context.Background(), tx)

	note := Note{ID: "n1", Body: "new"}
	require.NoError(t, db.WithContext(ctx).Model(&note).Update("body", "new").Error)
	require.NoError(t, db.WithContext(ctx).Delete(&note).Error)

	data, err := tx.End()
	require.NoError(t, err)
	assert.Empty(t, data.Updated)
	require.Len(t, data.Deleted, 1)
	assert.Equal(t, "n1", data.Deleted[0].Key.ID)
}

func TestPlugin_NoTransactionIsIgnored(t *testing.T) {
	db := openDB(t)
	assert.NoError(t, db.Create(&Note{ID: "solo"}).Error)
}

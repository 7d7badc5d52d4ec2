// Package ormhook feeds the cascade tracker from GORM callbacks, so
// resolvers using GORM get change tracking without explicit Track calls.
// The open transaction travels on the statement context; statements issued
// outside a cascade transaction are ignored.
package ormhook

import (
	"log/slog"
	"reflect"

	"gorm.io/gorm"

	"graphql-cascade/internal/entity"
	"graphql-cascade/internal/tracker"
)

// Plugin is a gorm.Plugin registering cascade tracking callbacks.
type Plugin struct {
	logger *slog.Logger
}

// New creates the plugin.
func New(logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plugin{logger: logger}
}

// Name implements gorm.Plugin.
func (p *Plugin) Name() string { return "graphql-cascade" }

// Initialize implements gorm.Plugin.
func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("cascade:track_create", p.afterCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("cascade:track_update", p.afterUpdate); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("cascade:track_delete", p.beforeDelete)
}

func (p *Plugin) afterCreate(db *gorm.DB) {
	p.each(db, func(tx *tracker.Transaction, model any) error {
		return tx.TrackCreate(model)
	})
}

func (p *Plugin) afterUpdate(db *gorm.DB) {
	p.each(db, func(tx *tracker.Transaction, model any) error {
		return tx.TrackUpdate(model)
	})
}

// beforeDelete runs before the row disappears so the model still carries its
// id.
func (p *Plugin) beforeDelete(db *gorm.DB) {
	p.each(db, func(tx *tracker.Transaction, model any) error {
		key, err := entity.Identify(model)
		if err != nil {
			return err
		}
		return tx.TrackDelete(key.Typename, key.ID)
	})
}

func (p *Plugin) each(db *gorm.DB, track func(*tracker.Transaction, any) error) {
	if db.Error != nil || db.Statement == nil {
		return
	}
	tx := tracker.FromContext(db.Statement.Context)
	if tx == nil {
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			p.trackOne(tx, rv.Index(i), track)
		}
	case reflect.Struct:
		p.trackOne(tx, rv, track)
	}
}

func (p *Plugin) trackOne(tx *tracker.Transaction, rv reflect.Value, track func(*tracker.Transaction, any) error) {
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	var model any
	if rv.CanAddr() {
		model = rv.Addr().Interface()
	} else {
		model = rv.Interface()
	}
	if err := track(tx, model); err != nil {
		p.logger.Warn("cascade ORM hook failed to track change",
			slog.String("error", err.Error()),
		)
	}
}

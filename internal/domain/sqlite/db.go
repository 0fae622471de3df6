package sqlite

import (
	"time"

	"socialnotes/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Init opens (or creates) the database at the given path and migrates the
// schema. Tests pass an in-memory DSN like "file:name?mode=memory&cache=shared".
func Init(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&entity.User{}, &entity.Note{})
	if err != nil {
		return nil, err
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

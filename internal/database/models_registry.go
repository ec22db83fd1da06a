package database

import "artfeed/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Tag{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Reply{},
	}
}

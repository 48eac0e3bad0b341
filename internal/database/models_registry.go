package database

import "homestead/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters: owners before the tables referencing them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Property{},
		&models.Post{},
	}
}

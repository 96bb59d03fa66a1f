package database

import "gorm.io/gorm"

// AutoMigrate runs gorm's schema reconciliation for the given models.
// This gateway is a single embedded process, not a fleet of services
// sharing one schema, so a migration-runner (golang-migrate and its
// versioned SQL files) would be more machinery than the problem needs;
// AutoMigrate at startup mirrors the teacher's own
// llm.InitDatabase(db) call in cmd/agentflow/main.go.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	return db.AutoMigrate(models...)
}

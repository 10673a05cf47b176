package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds supplementary indexes that cannot be declared on the
// model tags. The functional indexes on users are the final arbiter for
// concurrent registrations racing on a case variant of the same email
// or username. Composite indexes backing the authorization and audit
// access paths are created by AutoMigrate.
func AddIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
		"CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)",
		"CREATE INDEX IF NOT EXISTS idx_invitations_invited_by_id ON invitations (invited_by_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_content_type ON audit_logs (content_type)",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

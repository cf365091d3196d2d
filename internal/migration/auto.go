package migration

import (
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	notificationdomain "github.com/stagecast/encore/internal/notification/domain"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"gorm.io/gorm"
)

// AutoMigrate covers the dialects the SQL migrations do not (sqlite for
// tests and local runs, mysql).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&rosterdomain.Profile{},
		&accountdomain.LinkedAccount{},
		&snapshotdomain.MetricSnapshot{},
		&notificationdomain.Notification{},
		&notificationdomain.EvaluatedSnapshot{},
	)
}

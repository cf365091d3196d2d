package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/platform"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	"gorm.io/gorm"
)

const demoDisplayName = "Demo Artist"

// EnsureDemoProfile seeds one roster profile with a pair of linked accounts
// so a fresh local install has something to look at. Safe to call on every
// startup; it is a no-op once the profile exists.
func EnsureDemoProfile(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing rosterdomain.Profile
		err := tx.Where("display_name = ?", demoDisplayName).Take(&existing).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		now := time.Now().UTC()
		profile := rosterdomain.Profile{
			ID:          node.Generate(),
			DisplayName: demoDisplayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		accounts := []accountdomain.LinkedAccount{
			{
				ID:        node.Generate(),
				ProfileID: profile.ID,
				Platform:  platform.Instagram,
				Username:  "instagram",
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:        node.Generate(),
				ProfileID: profile.ID,
				Platform:  platform.YouTube,
				Username:  "youtube",
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		return tx.Create(&accounts).Error
	})
}

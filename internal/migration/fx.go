package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoProfile(conn, node)
		}
		return nil
	}),
)

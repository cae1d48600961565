package cli

import (
	"english_club_backend/pkg/database"

	"github.com/spf13/cobra"
)

// NewMigrateCmd 执行数据库迁移后退出
func NewMigrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			db, err := database.InitDB(&cfg.Database, false)
			if err != nil {
				return err
			}
			return database.AutoMigrate(db)
		},
	}
}

// NewSeedCmd 写入默认账号与示例测验
func NewSeedCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed default accounts and sample quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			db, err := database.InitDB(&cfg.Database, false)
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			return database.Seed(db)
		},
	}
}

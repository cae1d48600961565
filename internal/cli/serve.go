package cli

import (
	"english_club_backend/internal/app"
	"english_club_backend/pkg/configwatcher"
	"english_club_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd 启动 HTTP 服务
func NewServeCmd(configDir *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			cfg.ForceMigrate = migrate

			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			application.WarmLeaderboard(cmd.Context())

			if cfg.ConfigFile != "" {
				watcher, err := configwatcher.New(cfg.ConfigFile, application.ReloadConfig)
				if err != nil {
					logger.Log.Warn("Config hot reload disabled", zap.Error(err))
				} else {
					defer watcher.Close()
					go watcher.Run()
				}
			}

			return application.Run()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run database migrations on startup even in release mode")
	return cmd
}

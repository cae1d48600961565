package cli

import (
	"english_club_backend/internal/config"
	"os"

	"github.com/spf13/cobra"
)

var configDir string

// Execute 运行命令行，未指定子命令时启动服务
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("ENGLISH_CLUB_CONFIG_DIR")
	if envConfig == "" {
		envConfig = "configs"
	}

	serve := NewServeCmd(&configDir)
	cmd := &cobra.Command{
		Use:           "english-club",
		Short:         "English club backend: quizzes, attendance and XP ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.PersistentFlags().StringVar(&configDir, "config", envConfig, "directory containing config.yaml")
	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd(&configDir))
	cmd.AddCommand(NewSeedCmd(&configDir))
	cmd.AddCommand(NewBackfillCmd(&configDir))
	return cmd
}

func loadConfig(dir string) (*config.Config, error) {
	return config.LoadConfig(dir)
}

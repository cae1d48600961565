package cli

import (
	"english_club_backend/internal/app"
	"english_club_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewBackfillCmd 对已有测验记录做经验对账
func NewBackfillCmd(configDir *string) *cobra.Command {
	var userID uint
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Reconcile quiz attempt XP with the ledger and user balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}

			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())
			defer logger.Sync()

			report, err := application.AttemptService().BackfillAll(cmd.Context(), userID)
			if err != nil {
				return err
			}

			logger.Log.Info("Backfill finished",
				zap.Int("scanned", report.Scanned),
				zap.Int("corrected", report.Corrected),
				zap.Int("credited", report.Credited),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
			cmd.Printf("scanned=%d corrected=%d credited=%d skipped=%d failed=%d\n",
				report.Scanned, report.Corrected, report.Credited, report.Skipped, report.Failed)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "only reconcile attempts of this user id")
	return cmd
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xavierca1/ligue-crm/internal/app"
	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/logging"
)

var (
	clinicID string
	funnelID int64
	verbose  bool

	flush func()
)

var rootCmd = &cobra.Command{
	Use:           "crmctl",
	Short:         "Ferramenta de operação do Ligue CRM",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		_, sync, err := logging.Setup(level)
		if err != nil {
			return err
		}
		flush = sync
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if flush != nil {
			flush()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&clinicID, "clinic", "", "id da clínica")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log em nível debug")

	rootCmd.AddCommand(boardCmd, leadsCmd, moveCmd, dispatchDueCmd)
}

// withApp carrega a config e monta o App sem RabbitMQ.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func requireClinic() error {
	if clinicID == "" {
		return fmt.Errorf("--clinic é obrigatório")
	}
	return nil
}

// Package cli реализует gymctl, консольную утилиту оператора спортзала.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/models"
	"github.com/magabrotheeeer/gym-console/internal/storage"
)

// Source данные участников и тарифов.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListMemberships(ctx context.Context) ([]models.Membership, error)
}

// Ledger журнал напоминаний.
type Ledger interface {
	ListDispatches(ctx context.Context, day time.Time) ([]storage.Dispatch, error)
	Close() error
}

// App зависимости команд. Незаполненные поля собираются из конфигурации.
type App struct {
	Source     Source
	OpenLedger func(ctx context.Context) (Ledger, error)
	GymName    string
	Now        func() time.Time
}

// Execute запускает gymctl с аргументами процесса.
func Execute() error {
	return NewRootCmd(&App{}).Execute()
}

// NewRootCmd собирает дерево команд.
func NewRootCmd(app *App) *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "gymctl",
		Short:         "gymctl: membership status and reminders of the gym from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.wire(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config")

	rootCmd.AddCommand(
		newStatusCmd(app),
		newListCmd(app, "expiring", "Members whose membership expires within a week", expiringList),
		newListCmd(app, "expired", "Members whose membership has expired", expiredList),
		newWhatsAppCmd(app),
		newRemindersCmd(app),
	)
	return rootCmd
}

func (a *App) wire(configPath string) error {
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.Source != nil && a.OpenLedger != nil {
		return nil
	}
	if configPath == "" {
		return fmt.Errorf("config path is not set: use --config or CONFIG_PATH")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if a.GymName == "" {
		a.GymName = cfg.Reminder.GymName
	}
	if a.Source == nil {
		a.Source = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil)
	}
	if a.OpenLedger == nil {
		a.OpenLedger = func(ctx context.Context) (Ledger, error) {
			db, err := storage.New(ctx, cfg.StorageConnectionString)
			if err != nil {
				return nil, err
			}
			return db, nil
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package cli wires configuration, storage, and the TUI behind a cobra
// command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/candemir/studydeck/internal/config"
	"github.com/candemir/studydeck/internal/focus"
	"github.com/candemir/studydeck/internal/history"
	"github.com/candemir/studydeck/internal/storage"
	"github.com/candemir/studydeck/internal/task"
	"github.com/candemir/studydeck/internal/tui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "studydeck",
	Short:        "Task tracking, focus sessions, and streaks in the terminal",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runTUI()
	},
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ~/.config/studydeck/studydeck.yaml)")
	rootCmd.PersistentFlags().String("db-path", "", "database file path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug | info | warn | error")
	bindFlag("db_path", rootCmd.PersistentFlags(), "db-path")
	bindFlag("log_level", rootCmd.PersistentFlags(), "log-level")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cfg, _ := os.UserConfigDir()
		viper.SetConfigName("studydeck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(cfg, "studydeck"))
	}

	viper.SetEnvPrefix("studydeck")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
			os.Exit(1)
		}
	}
}

func runTUI() error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel)

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = storage.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	clock := task.SystemClock()
	store := task.NewStore(clock, db, logger)
	ledger := history.NewLedger(db, logger)

	tasks, err := db.LoadTasks()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	store.Load(tasks)

	entries, err := db.LoadHistory()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	ledger.Load(entries)

	scheduler := focus.NewScheduler(store, ledger)
	scheduler.SetDurations(
		db.GetSettingInt("focus_seconds", cfg.FocusSeconds),
		db.GetSettingInt("break_seconds", cfg.BreakSeconds),
		db.GetSettingInt("session_minutes", focus.SessionMinutes),
	)
	if snap, err := db.LoadActiveSession(); err != nil {
		logger.Error("load active session failed", "err", err)
	} else if snap != nil {
		scheduler.Restore(*snap)
	}

	app := tui.NewApp(tui.Deps{
		Store:     store,
		Ledger:    ledger,
		Scheduler: scheduler,
		DB:        db,
		Clock:     clock,
		Logger:    logger,
		Config:    cfg,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	// Persist the resume snapshot (or clear it) on clean exit.
	if err := db.SaveActiveSession(scheduler.Snapshot()); err != nil {
		logger.Error("save active session failed", "err", err)
	}
	return nil
}

func buildLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func bindFlag(viperKey string, fs *pflag.FlagSet, flagName string) {
	if err := viper.BindPFlag(viperKey, fs.Lookup(flagName)); err != nil {
		panic(fmt.Sprintf("bindFlag %q to %q: %v", flagName, viperKey, err))
	}
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/history"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/notify"
	"github.com/lowaak/interval-walk/interval-walk-app/internal/walker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "interval-walk",
		Short: "Interval walking trainer with voice-guided slow/fast phases",
		Long: `interval-walk runs alternating slow and fast walking phases in the
terminal, announces upcoming pace changes, and keeps a history of completed
sessions. Press Space to start, 2 to browse formulas, 3 to see your history.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runApp(cfg)
		},
	}
	registerConfigFlags(root.PersistentFlags(), v)

	root.AddCommand(newHistoryCmd(v))
	root.AddCommand(newStatsCmd(v))
	return root
}

// runApp assembles and runs the full-screen application.
func runApp(cfg appConfig) error {
	logger, uiLogChan := newLogger(cfg.LogPath)
	logger.Println("interval-walk starting")

	formulas, err := cfg.loadFormulas()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	announcer, err := composeAnnouncer(cfg, logger)
	if err != nil {
		return err
	}

	app := tview.NewApplication()
	model := walker.NewAppModel(formulas, logger, uiLogChan)
	controller := walker.NewController(model, store, announcer, cfg.StateDir, logger)
	controller.Bootstrap()

	view := walker.NewCursesUIView(logger, app, model)
	base := walker.NewBaseUIView(walker.NewBaseUIViewArg{
		UIViewImpl: view,
		UIModel:    model,
		Controller: controller,
		Logger:     logger,
	})

	runErr := base.Run()

	// Shutdown order matters: stop the timer first so no more state flows,
	// then the view bridge, then the model's own goroutines.
	controller.Shutdown()
	base.Shutdown()
	model.Shutdown()

	logger.Println("interval-walk exiting")
	return runErr
}

// composeAnnouncer builds the enabled announcement channels.
func composeAnnouncer(cfg appConfig, logger *log.Logger) (notify.Announcer, error) {
	var channels notify.MultiAnnouncer

	if cfg.Voice {
		speech, err := notify.NewSpeechAnnouncer(cfg.SpeechCommand, logger)
		if err != nil {
			return nil, fmt.Errorf("speech command: %w", err)
		}
		channels = append(channels, speech)
	}
	if cfg.Bell {
		channels = append(channels, notify.NewBellAnnouncer(os.Stdout))
	}

	if len(channels) == 0 {
		return notify.NopAnnouncer{}, nil
	}
	return channels, nil
}

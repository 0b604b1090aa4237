package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Veraticus/skinscope/internal/common"
	"github.com/Veraticus/skinscope/internal/config"
	"github.com/Veraticus/skinscope/internal/tui"
	"github.com/Veraticus/skinscope/internal/tui/themes"
)

func uiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive client",
		Long: `Start the interactive client.

Sign in or create an account, choose an image of the lesion and press
Ctrl+S to have it analyzed. The result screen shows the predicted
condition, the model's confidence and reference information.`,
		RunE: runUI,
	}
	addUIFlags(cmd)
	return cmd
}

func addUIFlags(cmd *cobra.Command) {
	cmd.Flags().String("route", "/", "screen to open first (/signin, /signup, /home)")
	cmd.Flags().String("record", "", "write every rendered frame under this directory for debugging")
}

func runUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	// The terminal belongs to the UI; logs go to a rotated file instead.
	if err := logToFile(a.cfg.Logging); err != nil {
		return err
	}

	route, _ := cmd.Flags().GetString("route")
	record, _ := cmd.Flags().GetString("record")
	return tui.Run(ctx, a.provider,
		tui.WithPredictor(a.predictor()),
		tui.WithTheme(themes.GetTheme(a.cfg.UI.Theme)),
		tui.WithSplash(a.cfg.UI.Splash),
		tui.WithPreviewWidth(a.cfg.UI.PreviewWidth),
		tui.WithInitialRoute(route),
		tui.WithRecording(record),
	)
}

func logToFile(cfg config.LoggingConfig) error {
	if err := config.EnsureParentDir(cfg.File); err != nil {
		return err
	}
	level, err := common.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	if err := common.SetupLogger(level, cfg.Format, w); err != nil {
		return fmt.Errorf("failed to set up file logging: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"finnduel-overlay-backend/config"
	"finnduel-overlay-backend/logging"
	"finnduel-overlay-backend/services"
	"finnduel-overlay-backend/suspension"
	"finnduel-overlay-backend/utils"
)

var (
	logger      zerolog.Logger
	cfg         *config.Config
	overlayFile string
)

var rootCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Sportsbook overlay synchronized to a local video",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if overlayFile != "" {
			cfg.OverlayFile = overlayFile
		}
		logger = logging.Setup(cfg.Environment)
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the overlay page, market API and video",
	RunE:  runServe,
}

var evaluatePositions []float64

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [--position SECONDS]... [POSITION]...",
	Short: "Print the market status for playback positions in seconds",
	Long: `Print the clock and market status for each playback position.

Negative positions must be passed as --position=-5 or after "--".`,
	RunE: runEvaluate,
}

var (
	marketsCategory string
	marketsOut      string
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Print or export the market catalogue",
	RunE:  runMarkets,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&overlayFile, "overlay", "", "overlay file (.yaml or .json); overrides OVERLAY_FILE")

	evaluateCmd.Flags().Float64SliceVar(&evaluatePositions, "position", nil, "playback position in seconds (repeatable)")

	marketsCmd.Flags().StringVar(&marketsCategory, "category", "", "only this category")
	marketsCmd.Flags().StringVar(&marketsOut, "out", "", "write JSON to this file instead of stdout")

	rootCmd.AddCommand(serveCmd, evaluateCmd, marketsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	overlay, err := config.LoadOverlay(cfg.OverlayFile)
	if err != nil {
		return fmt.Errorf("load overlay: %w", err)
	}

	a, err := newApp(cfg, overlay, clockwork.NewRealClock())
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	if path, err := a.marketService.VideoPath(); err != nil {
		logger.Warn().Err(err).Msg("no video available yet, /api/video will return 404")
	} else {
		logger.Info().Str("video", path).Msg("video located")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("addr", server.Addr).
		Str("media_dir", cfg.MediaDir).
		Str("overlay_file", cfg.OverlayFile).
		Int("windows", a.schedule.Len()).
		Int("categories", len(overlay.Categories)).
		Msg("starting overlay server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	// Shutdown does not track hijacked connections.
	a.hub.Close()
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	overlay, err := config.LoadOverlay(cfg.OverlayFile)
	if err != nil {
		return fmt.Errorf("load overlay: %w", err)
	}
	schedule, err := suspension.NewSchedule(overlay.Windows)
	if err != nil {
		return err
	}

	positions := append([]float64(nil), evaluatePositions...)
	for _, arg := range args {
		position, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("position %q is not a number", arg)
		}
		positions = append(positions, position)
	}
	if len(positions) == 0 {
		return errors.New("at least one position is required")
	}

	out := cmd.OutOrStdout()
	for _, position := range positions {
		fmt.Fprintf(out, "%s\t%s\n", utils.FormatClock(position), schedule.Evaluate(position))
	}
	return nil
}

func runMarkets(cmd *cobra.Command, args []string) error {
	overlay, err := config.LoadOverlay(cfg.OverlayFile)
	if err != nil {
		return fmt.Errorf("load overlay: %w", err)
	}
	marketService := services.NewMarketService(cfg, overlay)

	var result any = overlay.Categories
	if marketsCategory != "" {
		markets, err := marketService.Markets(marketsCategory)
		if err != nil {
			return err
		}
		result = markets
	}

	if marketsOut != "" {
		if err := utils.WriteJSON(marketsOut, result); err != nil {
			return fmt.Errorf("write %s: %w", marketsOut, err)
		}
		logger.Info().Str("file", marketsOut).Msg("market catalogue exported")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

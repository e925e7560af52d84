package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldtgames/citadel/internal/config"
	"github.com/veldtgames/citadel/internal/engine"
	"github.com/veldtgames/citadel/internal/game"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config       string
	Mode         string
	FPSCap       int
	DebugOverlay bool
	Frames       int
	Seed         int64
	Units        int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine frame loop",
		Long: `Start the citadel engine and run the built-in demo session.

Configuration merges, in order: built-in defaults, the optional YAML
config file, CITADEL_* environment variables, and command-line flags.
The merged result is validated before the engine is constructed.

Example:
  citadel run --config citadel.yaml
  citadel run --mode headless --frames 600 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "engine mode (full|headless|legacy)")
	cmd.Flags().IntVar(&opts.FPSCap, "fps-cap", -1, "frame rate ceiling, 0 = uncapped")
	cmd.Flags().BoolVar(&opts.DebugOverlay, "debug-overlay", false, "draw version and FPS each frame")
	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "stop after this many frames, 0 = run until interrupted")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "demo session seed")
	cmd.Flags().IntVar(&opts.Units, "units", 8, "demo session unit count")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := loadRunConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if mode != engine.ModeHeadless {
		// The interactive presentation stack ships separately; this
		// binary only hosts the headless loop.
		return WrapExitError(ExitCommandError, "unsupported mode",
			fmt.Errorf("%s mode requires a windowed presenter", mode))
	}

	eng, err := engine.New(engine.Config{
		Mode:           mode,
		RootDir:        cfg.DataDir,
		Version:        Version,
		FrameBudget:    fpsToBudget(cfg.FPSCap),
		DebugOverlay:   cfg.DebugOverlay,
		DisableHUD:     cfg.DisableHUD,
		ViewportW:      cfg.ViewportW,
		ViewportH:      cfg.ViewportH,
		Workers:        cfg.Workers,
		ScreenshotDir:  cfg.ScreenshotDir,
		CVarDB:         cfg.CVarDB,
		BindingProfile: cfg.BindingProfile,
	}, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to construct engine", err)
	}
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			slog.Error("error closing engine", "error", closeErr)
		}
	}()

	// Surface key-binding announcements on stdout as they arrive.
	notices := eng.Notifications().Subscribe()
	go func() {
		for lines := range notices {
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		}
	}()

	if err := eng.StartGameFrom(game.Generator(opts.Seed, opts.Units)); err != nil {
		return WrapExitError(ExitFailure, "failed to start demo session", err)
	}

	if opts.Frames > 0 {
		limit := opts.Frames
		frames := 0
		eng.RegisterTickAction(engine.TickFunc(func() {
			frames++
			if frames >= limit {
				eng.Stop()
			}
		}))
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("engine starting", "mode", mode, "fps_cap", cfg.FPSCap, "frames", opts.Frames)
	fmt.Fprintln(cmd.OutOrStdout(), "Engine started. Press Ctrl-C to stop.")

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("engine stopped gracefully")
	return nil
}

// loadRunConfig merges the file/env configuration with flag overrides.
// Flags win only when set on the command line.
func loadRunConfig(opts *RunOptions, cmd *cobra.Command) (config.File, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.File{}, err
	}

	if cmd.Flags().Changed("mode") {
		cfg.Mode = opts.Mode
	}
	if cmd.Flags().Changed("fps-cap") {
		cfg.FPSCap = opts.FPSCap
	}
	if cmd.Flags().Changed("debug-overlay") {
		cfg.DebugOverlay = opts.DebugOverlay
	}

	if err := cfg.Validate(); err != nil {
		return config.File{}, err
	}
	return cfg, nil
}

func fpsToBudget(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blunderboard/internal/app"
	"blunderboard/internal/telemetry"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	configPath string
	puzzlesLoc string
	dataDir    string
	logPath    string
	asciiOnly  bool
	devMode    bool
	devHTTP    string
	demoName   string
	styleName  string
	motionName string
	seed       int64

	serveAddr string
	serveFile string
	statsRaw  bool
)

var rootCmd = &cobra.Command{
	Use:   "blunderboard",
	Short: "Replay your worst chess blunders as puzzles in the terminal",
	Long: `blunderboard loads a collection of blunders from your own games, replays
each mistake on a terminal chessboard, and asks you to find the move you missed.

Run without arguments to open the board. With no --puzzles location a built-in
sample collection is used.`,
	SilenceUsage: true,
	RunE:         runBoard,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local puzzles file over HTTP",
	Long: `Serves a puzzles JSON file at /puzzles.json so the board can be pointed at it
with --puzzles http://<addr>/puzzles.json. The file is validated on start.`,
	RunE: runServe,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print collection and progress statistics",
	RunE:  runStats,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&puzzlesLoc, "puzzles", "p", "", "Puzzles file path or http(s) URL")
	pf.StringVar(&dataDir, "data-dir", "", "Directory for progress and settings (default ~/.local/share/blunderboard)")
	pf.StringVar(&logPath, "log", "", "Write JSON logs to this file")

	f := rootCmd.Flags()
	f.BoolVar(&asciiOnly, "ascii", false, "Draw the board with ASCII characters only")
	f.BoolVar(&devMode, "dev", false, "Enable the dev HTTP endpoints")
	f.StringVar(&devHTTP, "dev-http", "", "Dev HTTP listen address")
	f.StringVar(&demoName, "demo", "", "Demo scenario to apply after loading (latest, another, solved, failed, reload)")
	f.StringVar(&styleName, "style", "", "Style variant (modern_arcade, cozy_clean, retro_terminal)")
	f.StringVar(&motionName, "motion", "", "Motion level (full, reduced, off)")
	f.Int64Var(&seed, "seed", 0, "Seed for Try Another selection")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().StringVar(&serveFile, "file", "puzzles.json", "Puzzles JSON file to serve")

	statsCmd.Flags().BoolVar(&statsRaw, "raw", false, "Print markdown without rendering")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the YAML file, BLUNDERBOARD_* env and explicit flags.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := cfg.LoadFile(configPath); err != nil {
		return cfg, err
	}
	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("puzzles") {
		cfg.Puzzles.Location = puzzlesLoc
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log") {
		cfg.LogPath = logPath
	}
	if flags.Changed("ascii") {
		cfg.ASCIIOnly = asciiOnly
	}
	if flags.Changed("dev") {
		cfg.Dev = devMode
	}
	if flags.Changed("dev-http") {
		cfg.DevHTTP = devHTTP
	}
	if flags.Changed("demo") {
		cfg.DemoScenario = demoName
	}
	if flags.Changed("style") {
		cfg.UI.StyleVariant = styleName
	}
	if flags.Changed("motion") {
		cfg.UI.MotionLevel = motionName
	}
	if flags.Changed("seed") {
		cfg.Puzzles.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runBoard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := telemetry.NewJSONLogger(logPath)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s at http://%s/puzzles.json\n", serveFile, serveAddr)
	return app.Serve(ctx, serveAddr, serveFile, logger)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	md, err := app.Stats(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if statsRaw {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

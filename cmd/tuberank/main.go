package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kongbai-rgb/tuberank/internal/config"
	"github.com/kongbai-rgb/tuberank/internal/database"
	"github.com/kongbai-rgb/tuberank/internal/discover"
	"github.com/kongbai-rgb/tuberank/internal/quota"
	"github.com/kongbai-rgb/tuberank/internal/ranking"
	"github.com/kongbai-rgb/tuberank/internal/refresh"
	"github.com/kongbai-rgb/tuberank/internal/scheduler"
	"github.com/kongbai-rgb/tuberank/internal/server"
	"github.com/kongbai-rgb/tuberank/internal/youtube"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tuberank",
	Short:   "Daily YouTube heat rankings",
	Long:    "tuberank samples engagement stats for tracked channels under a daily API quota and publishes top-50 rankings for Shorts and long-form video.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// A .env next to the binary supplies the API key in development.
		godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tuberank", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tuberank/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure channels and the API key env var.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and quota status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.Today())
		fmt.Println("Tracking:")
		fmt.Printf("  Active channels: %d\n", stats.ActiveChannels)
		fmt.Printf("  Videos: %d (%d shorts, %d long-form)\n", stats.TotalVideos, stats.TotalShorts, stats.TotalLongVideos)
		fmt.Printf("  Samples: %d\n", stats.TotalSamples)
		fmt.Println("\nRanking:")
		fmt.Printf("  Entries published today: %d\n", stats.TodayRankings)
		fmt.Println("\nQuota:")
		fmt.Printf("  Daily limit: %d units\n", cfg.Quota.DailyLimit)
		fmt.Println("  Note: the in-memory counter resets on restart")
		return nil
	},
}

// --- channels command ---

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Manage tracked channels",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		channels, err := db.GetActiveChannels()
		if err != nil {
			return err
		}

		if len(channels) == 0 {
			fmt.Println("No channels tracked. Add one with: tuberank channels add")
			return nil
		}

		fmt.Println("Tracked channels:")
		fmt.Println()
		for _, c := range channels {
			fmt.Printf("  %s  %s\n", c.ID, c.Name)
		}
		return nil
	},
}

var channelsAddCmd = &cobra.Command{
	Use:   "add [channel-id] [name]",
	Short: "Track a new channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		added, err := db.InsertChannel(args[0], args[1], nil)
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("channel %s already tracked", args[0])
		}
		fmt.Printf("Tracking channel: %s (%s)\n", args[1], args[0])
		return nil
	},
}

var channelsRemoveCmd = &cobra.Command{
	Use:   "remove [channel-id]",
	Short: "Stop tracking a channel (history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		channel, err := db.GetChannelByID(args[0])
		if err != nil {
			return err
		}
		if channel == nil {
			return fmt.Errorf("channel %s not tracked", args[0])
		}

		if err := db.DeactivateChannel(args[0]); err != nil {
			return err
		}
		fmt.Printf("Stopped tracking: %s\n", channel.Name)
		return nil
	},
}

var backfillPages int

var channelsBackfillCmd = &cobra.Command{
	Use:   "backfill [channel-id]",
	Short: "Seed a channel's recent uploads from its playlist (spends quota)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		channel, err := db.GetChannelByID(args[0])
		if err != nil {
			return err
		}
		if channel == nil {
			return fmt.Errorf("channel %s not tracked; add it first", args[0])
		}

		ctx := context.Background()
		ledger := newLedger()
		provider := newProvider()

		if !ledger.Reserve(youtube.CostList) {
			return fmt.Errorf("insufficient quota")
		}
		playlist, err := provider.ChannelUploadsPlaylist(ctx, args[0])
		if err != nil {
			return fmt.Errorf("resolving uploads playlist: %w", err)
		}

		var ids []string
		pageToken := ""
		for page := 0; page < backfillPages; page++ {
			if !ledger.Reserve(youtube.CostList) {
				fmt.Println("Quota exhausted, stopping page walk")
				break
			}
			pageIDs, next, err := provider.PlaylistItems(ctx, playlist, pageToken)
			if err != nil {
				return fmt.Errorf("listing playlist page: %w", err)
			}
			ids = append(ids, pageIDs...)
			if next == "" {
				break
			}
			pageToken = next
		}

		collector := refresh.NewCollector(db, provider, ledger, cfg.Refresh.BatchSize, cfg.Refresh.BatchDelay.Std())
		result := collector.Collect(ctx, ids)

		fmt.Printf("Backfill for %s:\n", channel.Name)
		fmt.Printf("  Uploads found: %d\n", len(ids))
		fmt.Printf("  Videos recorded: %d\n", result.Sampled)
		if result.QuotaExhausted {
			fmt.Println("  Stopped early: daily quota exhausted")
		}
		return nil
	},
}

func init() {
	channelsBackfillCmd.Flags().IntVarP(&backfillPages, "pages", "n", 2, "Playlist pages to walk (50 videos each)")

	channelsCmd.AddCommand(channelsListCmd)
	channelsCmd.AddCommand(channelsAddCmd)
	channelsCmd.AddCommand(channelsRemoveCmd)
	channelsCmd.AddCommand(channelsBackfillCmd)
}

// --- refresh command ---

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle: discover uploads and collect stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		cycle := newCycle(db, newLedger())
		result, err := cycle.Run(context.Background(), time.Now())
		if err != nil {
			return err
		}

		fmt.Println("Refresh complete:")
		fmt.Printf("  New uploads discovered: %d\n", result.Discovered)
		fmt.Printf("  Candidates selected: %d\n", result.Candidates)
		fmt.Printf("  Samples appended: %d\n", result.Collect.Sampled)
		fmt.Printf("  Failures skipped: %d\n", result.Collect.Failed)
		if result.Collect.QuotaExhausted {
			fmt.Println("  Stopped early: daily quota exhausted")
		}
		return nil
	},
}

// --- rank command ---

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Generate and publish today's rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		publisher := ranking.NewPublisher(db, cfg.Ranking.TopN)
		result, err := publisher.Generate(time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("Rankings published for %s:\n", result.Date)
		fmt.Printf("  Shorts: %d entries\n", result.ShortsCount)
		fmt.Printf("  Long-form: %d entries\n", result.LongCount)
		fmt.Printf("  Below eligibility gate: %d\n", result.Ineligible)
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ledger := newLedger()
		sched := scheduler.New(
			db,
			newCycle(db, ledger),
			ranking.NewPublisher(db, cfg.Ranking.TopN),
			ledger,
			cfg.Refresh.Interval.Std(),
			cfg.Ranking.Interval.Std(),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("Scheduler running. Press Ctrl+C to stop.")
		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, newLedger(), newProvider(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- wiring helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := database.Open(filepath.Join(dataDir, "tuberank.db"))
	if err != nil {
		return nil, err
	}

	// Seed channels from config; already-tracked ids are ignored.
	for _, ch := range cfg.Channels {
		if _, err := db.InsertChannel(ch.ID, ch.Name, nil); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding channel %s: %w", ch.ID, err)
		}
	}
	return db, nil
}

func newLedger() *quota.Ledger {
	return quota.NewLedger(cfg.Quota.DailyLimit, cfg.Quota.WarningThreshold, nil)
}

func newProvider() youtube.Provider {
	return youtube.NewClient(cfg.APIKey(), cfg.YouTube.BaseURL)
}

func newCycle(db *database.DB, ledger *quota.Ledger) *refresh.Cycle {
	return refresh.NewCycle(
		db,
		newProvider(),
		ledger,
		discover.NewDiscoverer(),
		cfg.Refresh.MaxCandidates,
		cfg.Refresh.BatchSize,
		cfg.Refresh.BatchDelay.Std(),
	)
}

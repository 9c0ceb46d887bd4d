// Command contagion runs agent-based spread simulations on synthetic towns.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/persistence"
	"github.com/talgya/contagion/internal/sim"
	"github.com/talgya/contagion/internal/town"
	"github.com/talgya/contagion/internal/towngen"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "contagion",
		Short: "Agent-based disease and rumor spread simulation",
		Long: `contagion simulates the spread of a transmissible condition across a
population of agents moving over a spatial town graph, one day at a time.

Runs are fully reproducible from their seed. Results can be recorded to a
SQLite database for later analysis.`,
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newGenCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("contagion version %s\n", version)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)

			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if days, _ := cmd.Flags().GetInt("days"); days > 0 {
				cfg.Days = days
			}
			if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
				cfg.Seed = seed
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.Output.Path = db
			}
			return runSimulation(cfg)
		},
	}
	cmd.Flags().String("config", "contagion.yaml", "Path to the run config file")
	cmd.Flags().Int("days", 0, "Override the configured day cap")
	cmd.Flags().Int64("seed", 0, "Override the configured seed")
	cmd.Flags().String("db", "", "Override the output database path")
	return cmd
}

func runSimulation(cfg config.Config) error {
	m, err := cfg.BuildModel()
	if err != nil {
		return err
	}
	events, err := cfg.BuildEvents()
	if err != nil {
		return err
	}

	slog.Info("generating town", "locations", cfg.Town.Locations, "span", cfg.Town.Span)
	t, err := towngen.Generate(cfg.TownGen())
	if err != nil {
		return fmt.Errorf("generate town: %w", err)
	}
	logTownStats(t)

	s, err := sim.New(t, m, cfg.PopulationParams(), events, cfg.Days, cfg.Seed)
	if err != nil {
		return err
	}

	if cfg.Output.Path != "" {
		db, err := persistence.Open(cfg.Output.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		statuses := make([]string, 0, len(m.Statuses()))
		for _, st := range m.Statuses() {
			statuses = append(statuses, string(st))
		}
		names := make([]string, 0, len(events))
		for _, ev := range events {
			names = append(names, ev.Name)
		}
		rec, err := db.NewRun(persistence.RunMeta{
			Model:      m.Name(),
			Seed:       cfg.Seed,
			MaxDays:    cfg.Days,
			Population: cfg.Population.Size,
			Locations:  t.Len(),
			Statuses:   statuses,
			Events:     names,
		})
		if err != nil {
			return err
		}
		s.SetRecorder(rec, cfg.Output.LogFolks)
		slog.Info("recording run", "db", cfg.Output.Path, "run_id", rec.RunID())
	}

	slog.Info("starting simulation",
		"model", m.Name(),
		"population", humanize.Comma(int64(cfg.Population.Size)),
		"spreaders", cfg.Population.Spreaders,
		"days", cfg.Days,
		"seed", cfg.Seed,
	)
	if err := s.Run(); err != nil {
		return err
	}

	fmt.Printf("\nSimulation %s after %d day(s): %s of %s agents still alive.\n",
		s.State, s.Day,
		humanize.Comma(int64(s.AliveCount())),
		humanize.Comma(int64(len(s.Folks))),
	)
	for _, st := range m.Statuses() {
		fmt.Printf("  %-3s %s\n", st, humanize.Comma(int64(s.Ledger[st])))
	}
	return nil
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic town and print its layout statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)

			gc := towngen.DefaultGenConfig()
			gc.Locations, _ = cmd.Flags().GetInt("locations")
			gc.Span, _ = cmd.Flags().GetFloat64("span")
			gc.Seed, _ = cmd.Flags().GetInt64("seed")
			gc.Neighbors, _ = cmd.Flags().GetInt("neighbors")

			t, err := towngen.Generate(gc)
			if err != nil {
				return err
			}
			fmt.Println(t)
			logTownStats(t)
			return nil
		},
	}
	cmd.Flags().Int("locations", 400, "Number of locations")
	cmd.Flags().Float64("span", 4000, "Town side length in meters")
	cmd.Flags().Int64("seed", 0, "Generation seed (0 = random)")
	cmd.Flags().Int("neighbors", 6, "Nearest-neighbor edges per location")
	return cmd
}

func logTownStats(t *town.Town) {
	counts := t.KindCounts()
	kinds := make([]town.PlaceKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		slog.Info("place kind", "kind", k.String(), "count", counts[k])
	}
	slog.Info("town ready",
		"locations", t.Len(),
		"edges", t.EdgeCount(),
		"accommodations", len(t.Accommodations),
	)
}

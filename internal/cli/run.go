package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/evidence"
	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/middleware"
	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/notify"
	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/roster"
	"github.com/deklol/valorant-skirmish-nexus-sub000/infrastructure/store"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/application"
	"github.com/deklol/valorant-skirmish-nexus-sub000/internal/domain"
	"github.com/deklol/valorant-skirmish-nexus-sub000/pkg/balancer"
)

var (
	runRoster  string
	runEvent   string
	runEngine  string
	runDryRun  bool
	runSuggest bool
	runPushGW  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Form balanced teams from a roster snapshot",
	Long: `Run forms teams from the checked-in roster and writes the result as
a JSON document keyed by tournament id. With --dry-run the teams are
printed but nothing is persisted.

Examples:
  balancer run --roster roster.yaml --tournament weekly-42
  balancer run -c event.yaml --suggest
  NEXUS_ROSTER=roster.yaml balancer run --tournament weekly-42 --dry-run`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runRoster, "roster", "r", "", "roster snapshot YAML (overrides config)")
	runCmd.Flags().StringVarP(&runEvent, "tournament", "t", "", "tournament id (overrides config)")
	runCmd.Flags().StringVarP(&runEngine, "engine-config", "e", "", "engine tuning YAML (overrides config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print teams without persisting")
	runCmd.Flags().BoolVar(&runSuggest, "suggest", false, "include advisory swap suggestions")
	runCmd.Flags().StringVar(&runPushGW, "push-gateway", "", "Prometheus push gateway URL for run metrics")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rosterPath := firstNonEmpty(runRoster, appCfg.Roster)
	if rosterPath == "" {
		return fmt.Errorf("no roster file given (--roster or NEXUS_ROSTER)")
	}
	tournamentID := firstNonEmpty(runEvent, appCfg.Tournament)
	if tournamentID == "" {
		return fmt.Errorf("no tournament id given (--tournament or NEXUS_TOURNAMENT)")
	}

	cfg := balancer.DefaultConfig()
	if path := firstNonEmpty(runEngine, appCfg.EngineConfig); path != "" {
		var err error
		cfg, err = application.LoadConfig(path)
		if err != nil {
			return err
		}
	}
	if runSuggest {
		cfg.EnableRedistribution = true
	}

	competitors, err := roster.NewFileSource(rosterPath).FetchCheckedIn(ctx, tournamentID)
	if err != nil {
		return err
	}
	logger.Info("roster loaded",
		zap.String("tournament", tournamentID),
		zap.Int("checked_in", len(competitors)),
		zap.Int("capacity", cfg.Capacity()),
	)

	opts := []balancer.Option{
		balancer.WithPhaseListener(func(phase application.RunPhase, completed, total int) {
			logger.Debug("phase transition",
				zap.String("phase", string(phase)),
				zap.Int("completed", completed),
				zap.Int("total", total),
			)
		}),
		balancer.WithProgress(func(stepIndex, totalSteps int, last domain.DecisionStep) {
			logger.Debug("decision", zap.Int("step", stepIndex), zap.String("detail", last.String()))
		}),
	}
	var metricsReg *prometheus.Registry
	if runPushGW != "" {
		metricsReg = prometheus.NewRegistry()
		opts = append(opts, balancer.WithMetrics(middleware.NewPrometheusMetrics(metricsReg)))
	}
	if appCfg.Evidence != "" {
		records, err := evidence.LoadRecords(appCfg.Evidence)
		if err != nil {
			return err
		}
		opts = append(opts, balancer.WithEvidenceSource(evidence.NewStaticSource(records)))
		logger.Info("evidence loaded", zap.Int("records", len(records)))
	}

	result, err := balancer.ResolveTeams(ctx, competitors, cfg, opts...)
	if err != nil {
		return err
	}

	printResult(cmd, result)

	if metricsReg != nil {
		pusher := push.New(runPushGW, "balancer").
			Gatherer(metricsReg).
			Grouping("tournament", tournamentID)
		if err := pusher.PushContext(ctx); err != nil {
			// Metrics delivery must not fail the run itself.
			logger.Warn("metrics push failed", zap.Error(err))
		}
	}

	if runDryRun {
		logger.Info("dry run, skipping persistence")
		return nil
	}

	teamStore, err := store.NewJSONStore(appCfg.OutputDir)
	if err != nil {
		return err
	}
	if err := teamStore.SaveTeams(ctx, tournamentID, result.Teams); err != nil {
		return err
	}
	logger.Info("teams saved", zap.String("dir", appCfg.OutputDir))

	return notify.NewLogNotifier(logger).NotifyTeams(ctx, tournamentID, result.Teams)
}

func printResult(cmd *cobra.Command, result *domain.RunResult) {
	out := cmd.OutOrStdout()

	for _, t := range result.Teams {
		fmt.Fprintf(out, "Team %d (total %.0f):\n", t.Index+1, t.Total())
		for i, m := range t.Members {
			role := "      "
			if i == 0 {
				role = "[capt]"
			}
			fmt.Fprintf(out, "  %s %-20s %6.1f  %s\n", role, m.Name, m.EffectiveWeight, m.Source)
		}
	}
	if len(result.Substitutes) > 0 {
		fmt.Fprintln(out, "Substitutes:")
		for _, s := range result.Substitutes {
			fmt.Fprintf(out, "         %-20s %6.1f\n", s.Name, s.EffectiveWeight)
		}
	}

	m := result.Metrics
	fmt.Fprintf(out, "Balance: %s (max difference %.1f, avg %.1f)\n",
		m.Quality, m.MaxDifference, m.Average)

	for _, s := range result.Suggestions {
		fmt.Fprintf(out, "Suggestion: swap %s (team %d) with %s (team %d), improves spread by %.1f\n",
			s.CompetitorA, s.TeamA+1, s.CompetitorB, s.TeamB+1, s.Improvement)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

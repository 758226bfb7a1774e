package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/config"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/perf"
	"github.com/rustyeddy/stocksim/risk"
	"github.com/rustyeddy/stocksim/schedule"
	"github.com/rustyeddy/stocksim/sim"
	"github.com/rustyeddy/stocksim/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a portfolio simulation and report performance and risk",
	Long: `Run simulates a rules-based strategy over a rebalance calendar and
prints a performance and risk report.

Prices are loaded from a CSV with rows of ticker,date,close. Every price
lookup is point-in-time: a rebalance date only ever sees bars at or
before it.

Example:
  stocksim run --config sim.yaml
  stocksim run --prices data/prices.csv --strategy momentum --top 5 \
      --start 2018-01-01 --end 2023-12-31`,
	RunE: runSimulation,
}

var (
	runConfigPath string
	runPricesPath string
	runStart      string
	runEnd        string
	runFrequency  string
	runCash       float64
	runStrategy   string
	runTopN       int
	runUniverse   []string
	runDBPath     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML or JSON config file")
	runCmd.Flags().StringVarP(&runPricesPath, "prices", "p", "", "path to price CSV (ticker,date,close)")
	runCmd.Flags().StringVar(&runStart, "start", "", "simulation start date (2006-01-02)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "simulation end date (2006-01-02)")
	runCmd.Flags().StringVarP(&runFrequency, "frequency", "f", "", "rebalance frequency (monthly, quarterly)")
	runCmd.Flags().Float64Var(&runCash, "cash", 0, "initial cash")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (equal-weight, momentum)")
	runCmd.Flags().IntVar(&runTopN, "top", 0, "number of positions the strategy is asked for")
	runCmd.Flags().StringSliceVar(&runUniverse, "universe", nil, "comma-separated ticker universe")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "record the journal to this SQLite DB")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	pricesPath := cfg.Simulation.PricesCSV
	if pricesPath == "" {
		return fmt.Errorf("a price CSV is required (--prices or simulation.prices_csv)")
	}
	hist, err := market.LoadCSV(pricesPath)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	jnl, err := buildJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer jnl.Close()

	strat, err := strategyByName(cfg.Strategy, hist)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()
	dates, err := schedule.Generate(start, end, schedule.Frequency(cfg.Simulation.Frequency))
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	runner := sim.Runner{
		Oracle:   hist,
		Strategy: strat,
		Journal:  jnl,
		Config: sim.Config{
			InitialCash: cfg.Simulation.InitialCash,
			Commission:  cfg.Simulation.Commission,
			Slippage:    cfg.Simulation.Slippage,
			TopN:        cfg.Strategy.TopN,
		},
	}

	ctx := context.Background()
	fmt.Printf("Running simulation with strategy: %s\n", strat.Name())
	fmt.Printf("  Prices: %s\n", pricesPath)
	fmt.Printf("  Window: %s to %s (%s, %d rebalances)\n\n",
		cfg.Simulation.Start, cfg.Simulation.End, cfg.Simulation.Frequency, len(dates))

	result, err := runner.Run(ctx, cfg.Simulation.Universe, dates)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	metrics, err := perf.Compute(result.EquityCurve, result.Trades, cfg.Analysis.RiskFreeRate)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	printPerformance(result, metrics)
	printRisk(ctx, hist, result, cfg, start, end)
	return nil
}

// loadRunConfig loads the config file (or defaults) and applies any
// command-line overrides the user set explicitly.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("prices") {
		cfg.Simulation.PricesCSV = runPricesPath
	}
	if flags.Changed("start") {
		cfg.Simulation.Start = runStart
	}
	if flags.Changed("end") {
		cfg.Simulation.End = runEnd
	}
	if flags.Changed("frequency") {
		cfg.Simulation.Frequency = runFrequency
	}
	if flags.Changed("cash") {
		cfg.Simulation.InitialCash = runCash
	}
	if flags.Changed("strategy") {
		cfg.Strategy.Name = runStrategy
	}
	if flags.Changed("top") {
		cfg.Strategy.TopN = runTopN
	}
	if flags.Changed("universe") {
		cfg.Simulation.Universe = runUniverse
	}
	if flags.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDBPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func buildJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "memory":
		return journal.NewMemory(), nil
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

func strategyByName(sc config.StrategyConfig, oracle market.PriceOracle) (strategy.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(sc.Name)) {
	case "momentum":
		return strategy.NewMomentum(oracle, sc.LookbackDays), nil
	default:
		if s := strategy.Get(sc.Name); s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)",
			sc.Name, strings.Join(strategy.Names(), ", "))
	}
}

func printPerformance(result *sim.Result, m perf.Metrics) {
	fmt.Printf("Simulation Complete!\n")
	if result.Degraded() {
		fmt.Printf("  NOTE: computed with degraded data (%d flags)\n", len(result.Flags))
		for _, f := range result.Flags {
			fmt.Printf("    %s %-6s %s: %s\n", f.Date.Format("2006-01-02"), f.Ticker, f.Kind, f.Detail)
		}
	}
	fmt.Printf("  Final Value: $%.2f (cash $%.2f)\n", lastEquity(result), result.Final.Cash)
	fmt.Printf("  Total Return: %.2f%%\n", m.TotalReturn*100)
	fmt.Printf("  Annualized: %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("  TWR: %.2f%% (%.2f%% annualized)\n", m.TimeWeightedReturn*100, m.AnnualizedTWR*100)
	if m.IRRConverged {
		fmt.Printf("  MWR (IRR): %.2f%%\n", m.MoneyWeightedReturn*100)
	} else {
		fmt.Printf("  MWR (IRR): not computed (solver did not converge)\n")
	}
	fmt.Printf("  Max Drawdown: %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  Volatility: %.2f%%\n", m.Volatility*100)
	fmt.Printf("  Sharpe: %.2f\n", m.Sharpe)
	if math.IsInf(m.Sortino, 1) {
		fmt.Printf("  Sortino: +Inf (no downside observations)\n")
	} else {
		fmt.Printf("  Sortino: %.2f\n", m.Sortino)
	}
	fmt.Printf("  Calmar: %.2f\n", m.Calmar)
	if m.RoundTrips > 0 {
		fmt.Printf("  Round Trips: %d (win rate %.1f%%, profit factor %.2f)\n",
			m.RoundTrips, m.WinRate*100, m.ProfitFactor)
	}
}

// printRisk runs the risk analysis on the final holdings. A portfolio
// that ended in cash has nothing to analyze.
func printRisk(ctx context.Context, hist *market.History, result *sim.Result, cfg *config.Config, start, end time.Time) {
	if len(result.Final.Positions) == 0 {
		fmt.Printf("\nRisk: portfolio ended in cash, nothing to analyze\n")
		return
	}

	returns := make(map[string][]float64)
	prices := make(map[string]float64)
	var holdings float64
	for ticker, pos := range result.Final.Positions {
		bars, err := hist.HistoryRange(ctx, ticker, start, end)
		if err == nil {
			returns[ticker] = market.DailyReturns(bars)
		}
		px, err := hist.Price(ctx, ticker, end)
		if err != nil {
			continue
		}
		prices[ticker] = px
		holdings += float64(pos.Shares) * px
	}
	if holdings <= 0 {
		fmt.Printf("\nRisk: no usable prices for final holdings\n")
		return
	}

	weights := make(map[string]float64)
	for ticker, pos := range result.Final.Positions {
		weights[ticker] = float64(pos.Shares) * prices[ticker] / holdings
	}

	rm, err := risk.Compute(returns, weights, holdings, risk.Options{
		ConfidenceLevels:     cfg.Analysis.ConfidenceLevels,
		HorizonDays:          cfg.Analysis.HorizonDays,
		CorrelationThreshold: cfg.Analysis.CorrelationThreshold,
	})
	if err != nil {
		fmt.Printf("\nRisk: %v\n", err)
		return
	}

	fmt.Printf("\nRisk (final holdings, $%.2f):\n", holdings)
	if rm.InsufficientHistory {
		fmt.Printf("  VaR: insufficient history (%d observations, need %d)\n",
			rm.Observations, risk.MinObservations)
	}
	for _, v := range rm.VaR {
		fmt.Printf("  VaR %.0f%% (%dd): %.2f%% ($%.2f)  CVaR: %.2f%% ($%.2f)\n",
			v.Confidence*100, v.HorizonDays,
			v.VaR*100, v.VaRAmount, v.CVaR*100, v.CVaRAmount)
	}
	for _, p := range rm.RedundantPairs {
		fmt.Printf("  Redundant pair: %s/%s (corr %.2f)\n", p.A, p.B, p.Correlation)
	}
	fmt.Printf("  Herfindahl: %.3f  Top3: %.1f%%  Max Position: %.1f%%\n",
		rm.Concentration.Herfindahl, rm.Concentration.Top3*100, rm.Concentration.MaxPosition*100)
	fmt.Printf("  Diversification Score: %.0f/100\n", rm.DiversificationScore)
}

func lastEquity(result *sim.Result) float64 {
	if len(result.EquityCurve) == 0 {
		return 0
	}
	return result.EquityCurve[len(result.EquityCurve)-1].TotalValue
}

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "A rules-based stock portfolio simulator and research platform",
	Long: `Stocksim is a portfolio backtesting and research platform written in Go.

It provides tools for:
  - Simulating rules-based strategies over a rebalance calendar
  - Point-in-time price resolution with no look-ahead
  - Trade journals and equity curves (CSV or SQLite)
  - Performance analytics: TWR, IRR, drawdown, Sharpe, Sortino, Calmar
  - Risk analytics: historical VaR/CVaR, correlation, concentration

Complete documentation is available at https://github.com/rustyeddy/stocksim`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"CycleSentinel/internal/calculator"
	"CycleSentinel/internal/config"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/prefs"
)

var (
	scanSymbol    string
	scanTimeframe string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch history once and print the current panel",
	Long: `Scan loads the history of one instrument, runs the ATR and cycle
analysis over it and prints a single panel.

Example:
  cyclesentinel scan --symbol BTC --timeframe 4h`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanSymbol, "symbol", "s", "", "instrument to scan (default watch.symbol)")
	scanCmd.Flags().StringVarP(&scanTimeframe, "timeframe", "t", "", "timeframe to scan (default watch.timeframe)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(strings.TrimSpace(scanSymbol))
	if symbol == "" {
		symbol = cfg.Watch.Symbol
	}
	timeframe := scanTimeframe
	if timeframe == "" {
		timeframe = cfg.Watch.Timeframe
	}
	if !model.KnownTimeframe(timeframe) {
		return fmt.Errorf("unknown timeframe %q", timeframe)
	}

	feed := newHistoryFeed(cfg, newFetcher(cfg))
	res := feed.Fetch(cmd.Context(), symbol, timeframe)
	if res.Err != nil {
		return fmt.Errorf("load %s %s: %w", symbol, timeframe, res.Err)
	}

	risk, err := prefs.NewStore(cfg.Risk.StateFile, cfg.Risk.Investment, cfg.Risk.Leverage)
	if err != nil {
		return err
	}
	frame, err := scanFrame(cfg, symbol, timeframe, res.Candles, risk.Get())
	if err != nil {
		return err
	}
	return notifier.NewConsoleSink(cmd.OutOrStdout()).Render(context.Background(), frame)
}

// scanFrame builds the frame the monitor shows right after installing candles
// as history: the last candle is the bar in progress and the phase index counts
// every loaded candle, including those beyond the buffer capacity.
func scanFrame(cfg *config.Config, symbol, timeframe string, candles []model.Candle, risk model.RiskParams) (*model.Frame, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("no history for %s %s", symbol, timeframe)
	}
	total := len(candles)
	if len(candles) > cfg.Analysis.BufferCapacity {
		candles = candles[len(candles)-cfg.Analysis.BufferCapacity:]
	}
	last := candles[len(candles)-1]
	n := cfg.Analysis.Window
	frame := &model.Frame{
		Symbol:    symbol,
		Timeframe: timeframe,
		Observation: model.Observation{
			Symbol: symbol, Timeframe: timeframe,
			High: last.High, Low: last.Low, Close: last.Close,
		},
		At:         time.Now(),
		Samples:    len(candles),
		WindowSize: n,
		ATRPeriod:  cfg.Analysis.ATRPeriod,
		Risk:       risk,
	}

	period := cfg.Analysis.ATRPeriod
	if atr, err := calculator.CalculateATR(candles, period); err == nil {
		frame.ATRReady = true
		frame.ATR = atr
		frame.CashRisk = calculator.CashRisk(risk.Investment, risk.Leverage, last.Close, atr)
	}

	if len(candles) < n {
		frame.Status = notifier.FormatBuffering(len(candles), n)
		return frame, nil
	}
	analyzer, err := calculator.NewSpectralAnalyzer(n)
	if err != nil {
		return nil, err
	}
	closes := calculator.ExtractCloses(candles[len(candles)-n:])
	analysis, err := analyzer.Analyze(closes, total)
	if err != nil {
		frame.Status = fmt.Sprintf("Analysis unavailable: %v", err)
		return frame, nil
	}
	frame.Cycles = analysis
	frame.Status = notifier.FormatDominant(analysis)
	return frame, nil
}

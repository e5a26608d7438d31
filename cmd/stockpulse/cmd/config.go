package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"StockPulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage StockPulse configuration files.

Subcommands:
  init     - Write the default configuration
  validate - Load and validate an existing configuration

Examples:
  stockpulse config init -o config.yaml
  stockpulse config validate -f config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "config.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	_ = configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.Save(configInitOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration: %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Tickers:    %s (%s / %s)\n", strings.Join(cfg.Dashboard.Tickers, ","), cfg.Dashboard.Interval, cfg.Dashboard.Period)
	fmt.Fprintf(out, "  Indicators: sma=%v ema=%v rsi=%d macd=%d/%d/%d\n",
		cfg.Indicators.SMAWindows, cfg.Indicators.EMAWindows, cfg.Indicators.RSIWindow,
		cfg.Indicators.MACD.Fast, cfg.Indicators.MACD.Slow, cfg.Indicators.MACD.Signal)
	fmt.Fprintf(out, "  Provider:   %s\n", cfg.DataSource.Provider)
	fmt.Fprintf(out, "  Listen:     %s\n", cfg.Addr())
	return nil
}

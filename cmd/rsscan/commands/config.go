package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Cocofu92/rs-dashboard/internal/strategyconfig"
	"github.com/Cocofu92/rs-dashboard/pkg/config"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or validate the screening strategy",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective strategy as YAML with its hash",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a strategy file and print warnings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := strategyPath()
	if err != nil {
		return err
	}
	cfg, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("# strategy: %s (hash %s)\n", cfg.Meta.StrategyID, hash[:12])
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, err := strategyPath()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}

	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(os.Stdout, w.String())
	}
	name := path
	if name == "" {
		name = "built-in default"
	}
	PrintSuccess(os.Stdout, fmt.Sprintf("%s is valid", name))
	return nil
}

// strategyPath resolves --strategy, then STRATEGY_FILE
func strategyPath() (string, error) {
	if strategyFile != "" {
		return strategyFile, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.StrategyFile, nil
}

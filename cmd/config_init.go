package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lexkit/internal/config"
	"github.com/zjrosen/lexkit/internal/grammar"
)

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "config:init [path]",
	Short: "Write a commented default config file",
	Long: `Write the default configuration to path (default: .lexkit/config.yaml).
An existing file is left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configGrammarCmd = &cobra.Command{
	Use:   "config:grammar <grammar-file>",
	Short: "Validate a grammar file and make it the configured grammar",
	Long: `Load and compile a grammar file, then store its path under "grammar" in
the config file in use (or .lexkit/config.yaml). Comments in the config
file are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := grammar.Load(args[0])
		if err != nil {
			return err
		}
		if _, err := grammar.Compile(commandContext(cmd), spec, nil); err != nil {
			return err
		}

		path := viper.ConfigFileUsed()
		if path == "" {
			path = defaultConfigPath
		}
		if err := config.SaveGrammar(path, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "grammar %s saved to %s\n", spec.Name, path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configGrammarCmd)
}

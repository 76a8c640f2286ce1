package cmd

import (
	"github.com/spf13/cobra"
)

var grammarShowCmd = &cobra.Command{
	Use:   "grammar:show",
	Short: "Print the grammar in use as YAML",
	Long: `Print the effective grammar: the --grammar file, the configured grammar,
or the built-in cpp-template grammar. The output is a valid grammar file
and can be edited and passed back with --grammar.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfg.Grammar
		if cmd.Flags().Changed("grammar") {
			path, _ = cmd.Flags().GetString("grammar")
		}
		program, err := loadProgram(commandContext(cmd), path)
		if err != nil {
			return err
		}
		out, err := program.Spec().Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	grammarShowCmd.Flags().String("grammar", "", "grammar file (default: built-in cpp-template grammar)")
	rootCmd.AddCommand(grammarShowCmd)
}

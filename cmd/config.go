package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long:  "Loads geocollider.yaml and GEOCOLLIDER_* environment overrides, applies source presets and prints the result. Validation problems are reported after the dump.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		verr := cfg.Validate()

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return eris.Wrap(err, "config: write")
		}
		return verr
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

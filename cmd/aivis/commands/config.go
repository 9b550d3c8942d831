package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumijima/Aivis/cmd/aivis/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the aivis configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigFile(configPath, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing configuration file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfigFile writes the default configuration to path. An existing
// file is left alone unless force is set.
func initConfigFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, pass --force to overwrite", path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	return config.Save(path, config.Default())
}

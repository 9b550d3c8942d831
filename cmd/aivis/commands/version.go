package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tsukumijima/Aivis/cmd/aivis/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if cfg, err := GetConfig(); err == nil {
				fmt.Printf("  config: %s (work_dir: %s)\n", configPath, cfg.WorkDir)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

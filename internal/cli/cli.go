package cli

import (
	"context"
	"errors"
	"os"

	"github.com/xxxsen/romdex/internal/app"
	"github.com/xxxsen/romdex/internal/config"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "romdex",
	Short: "Index retro-game xmldb catalogs and serve queries",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			if configFile == "" && errors.Is(err, os.ErrNotExist) {
				// No config file anywhere; run on defaults.
				config.SetDefault(config.Default())
				return nil
			}
			return err
		}
		config.SetDefault(cfg)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "配置文件路径")
	for _, r := range app.RunnerList() {
		rinst := app.MustResolveRunner(r)
		runner := rinst
		subcmd := &cobra.Command{
			Use:   runner.Name(),
			Short: runner.Desc(),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				if err := runner.PreRun(ctx); err != nil {
					return err
				}
				if err := runner.Run(ctx); err != nil {
					return err
				}
				if err := runner.PostRun(ctx); err != nil {
					return err
				}
				return nil
			},
		}
		runner.Init(subcmd.Flags())
		rootCmd.AddCommand(subcmd)
	}
}

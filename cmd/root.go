// Package cmd implements the kvtable command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stevemurr/kvtable/kv"
	"github.com/stevemurr/kvtable/table"
)

func RootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:   "kvtable",
		Short: "Document tables on top of a flat key/value store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
	rootCmd.SetContext(context.WithValue(context.Background(), logFileKey{}, &logFile{}))
	rootCmd.PersistentFlags().String("url", "", "store URL, defaults to $"+kv.EnvURL)
	v.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	addLoggerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newKeysCmd(v))
	rootCmd.AddCommand(newGetCmd(v))
	rootCmd.AddCommand(newSetCmd(v))
	rootCmd.AddCommand(newDelCmd(v))
	rootCmd.AddCommand(newTableCmd(v))
	return rootCmd
}

// Execute runs rootCmd and closes the log file it opened, also when the
// command fails.
func Execute(rootCmd *cobra.Command) error {
	err := rootCmd.Execute()
	if cerr := getLogFile(rootCmd.Context()).Close(); err == nil {
		err = cerr
	}
	return err
}

func newClient(cmd *cobra.Command, v *viper.Viper) (*kv.Client, error) {
	cfg, err := kv.LoadConfig(v)
	if err != nil {
		return nil, err
	}
	return kv.New(cfg, kv.WithLogger(getLogger(cmd)))
}

func newTableStore(cmd *cobra.Command, v *viper.Viper) (*table.Store, func(), error) {
	c, err := newClient(cmd, v)
	if err != nil {
		return nil, nil, err
	}
	return table.NewStore(c, table.WithLogger(getLogger(cmd))), c.Close, nil
}

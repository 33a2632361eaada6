package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newKeysCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys [PREFIX]",
		Short: "List keys, optionally those starting with PREFIX",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) > 0 {
				prefix = args[0]
			}
			pattern, err := cmd.Flags().GetString("glob")
			if err != nil {
				return err
			}
			var g glob.Glob
			if pattern != "" {
				g, err = glob.Compile(pattern)
				if err != nil {
					return err
				}
			}
			c, err := newClient(cmd, v)
			if err != nil {
				return err
			}
			defer c.Close()
			keys, err := c.ListKeys(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if g != nil && !g.Match(k) {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	cmd.Flags().String("glob", "", "only print keys matching this glob pattern")
	return cmd
}

func newGetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, v)
			if err != nil {
				return err
			}
			defer c.Close()
			val, ok, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			return printValue(cmd.OutOrStdout(), val)
		},
	}
}

func newSetCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY",
		Long:  "Store VALUE under KEY. VALUE is parsed as JSON; anything else is stored as a string.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, v)
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Set(cmd.Context(), args[0], parseValue(args[1]))
		},
	}
}

func newDelCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "del KEY...",
		Short: "Delete keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, v)
			if err != nil {
				return err
			}
			defer c.Close()
			for _, key := range args {
				if err := c.Delete(cmd.Context(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

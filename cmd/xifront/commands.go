package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/xifront/internal/config"
	"github.com/dshills/xifront/internal/dispatch"
	"github.com/dshills/xifront/internal/edit"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "xifront %s\n", version)
			return err
		},
	}
}

func newConfigCmd(f *flags) *cobra.Command {
	var showEnv bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showEnv {
				for _, name := range config.EnvVars() {
					if _, err := fmt.Fprintln(out, name); err != nil {
						return err
					}
				}
				return nil
			}
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&showEnv, "env", false, "list the environment overrides instead")
	cmd.AddCommand(newProtocolCmd())
	return cmd
}

func newProtocolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protocol",
		Short: "List the engine methods and edit commands this front end knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "methods: %s\nedits: %s\n",
				strings.Join(dispatch.Methods(), ", "),
				strings.Join(edit.SimpleNames(), ", "))
			return err
		},
	}
}

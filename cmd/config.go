package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/propinspect/internal/config"
	"github.com/oakwood-commons/propinspect/internal/formatter"
	"github.com/oakwood-commons/propinspect/pkg/settings"
)

func (a *app) versionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the propinspect version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case "yaml":
				return printFormatted(cmd, formatter.FormatYAML, settings.VersionInformation)
			case "json":
				return printFormatted(cmd, formatter.FormatJSON, settings.VersionInformation)
			case "":
				fmt.Fprintln(cmd.OutOrStdout(), settings.VersionInformation.String())
				return nil
			}
			return fmt.Errorf("invalid --output %q: valid values are yaml, json", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: yaml|json")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the propinspect configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var output string
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "json" {
				return printFormatted(cmd, formatter.FormatJSON, a.cfg)
			}
			return printFormatted(cmd, formatter.FormatYAML, a.cfg)
		},
	}
	get.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml|json")

	defaults := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := config.ResolvePath(a.run.ConfigPath)
			if p == "" {
				p = "(built-in defaults)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(get, defaults, path)
	return cmd
}

func printFormatted(cmd *cobra.Command, format func(any) (string, error), v any) error {
	out, err := format(v)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

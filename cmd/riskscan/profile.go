package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
)

const defaultProfilePath = "profile.yaml"

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create, check and list scoring profiles",
	}
	cmd.AddCommand(newProfileInitCmd(), newProfileValidateCmd(), newProfileListCmd())
	return cmd
}

func newProfileInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default scoring profile as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultProfilePath
			if len(args) == 1 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return apperrors.NewValidationError(path + " already exists (use --force to overwrite)")
				} else if !errors.Is(err, fs.ErrNotExist) {
					return apperrors.NewIOError("failed to stat "+path, err)
				}
			}

			data, err := analysis.MarshalConfig(analysis.DefaultConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return apperrors.NewIOError("failed to write "+path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newProfileValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that a profile parses and its values are in range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := analysis.LoadConfigFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (method=%s rule=%s)\n",
				args[0], cfg.Ambiguity.Method, cfg.Risk.Rule)
			return nil
		},
	}
}

func newProfileListCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the named profiles stored in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := analysis.NewProfileStore(dir).ListProfiles()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./data/profiles", "profile directory")
	return cmd
}

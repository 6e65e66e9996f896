package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kubescape/go-logger"
	v1 "github.com/kubescape/imagedb/adapters/v1"
	"github.com/kubescape/imagedb/config"
	"github.com/kubescape/imagedb/internal/tools"
	"github.com/kubescape/imagedb/repositories"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultSoftwareVersion = "0.1.0"

type options struct {
	configDir       string
	root            string
	softwareVersion string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "imagedb",
		Short: "Inspect and maintain an image metadata store",
		Long: `imagedb operates directly on the store directory.

Commands:
  init      Create the store and record the software version
  list      List analyzed images and their tags
  show      Print every document stored for an image
  analyzed  Report whether all analyzers of an image succeeded
  delete    Remove an image from the store
  gates     Print the gate outputs of an image`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config", ".", "directory holding imagedb.json")
	rootCmd.PersistentFlags().StringVar(&opts.root, "root", "", "store root directory, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&opts.softwareVersion, "software-version", "", "software version recorded in the store")

	rootCmd.AddCommand(
		initCmd(opts),
		listCmd(opts),
		showCmd(opts),
		analyzedCmd(opts),
		deleteCmd(opts),
		gatesCmd(opts),
	)
	return rootCmd
}

// loadConfig falls back to defaults when no config file exists, flags win over both
func (o *options) loadConfig() (config.Config, error) {
	viper.Reset()
	c, err := config.LoadConfig(o.configDir)
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		c, err = config.Default(), nil
	}
	if err != nil {
		return c, err
	}
	if o.root != "" {
		c.StoreRoot = o.root
	}
	if o.softwareVersion != "" {
		c.SoftwareVersion = o.softwareVersion
	}
	if c.SoftwareVersion == "" {
		c.SoftwareVersion = tools.SoftwareVersion(defaultSoftwareVersion)
	}
	return c, nil
}

func (o *options) openStore(ctx context.Context) (*repositories.FileStore, error) {
	c, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return repositories.NewFileStore(ctx, c.StoreRoot, c.SoftwareVersion, logger.L(), v1.NewKVFile(), v1.NewPlainFile(), v1.NewTarGzArchiver())
}

func initCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store and record the software version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(c.StoreRoot, 0755); err != nil {
				return err
			}
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			version := store.Version()
			fmt.Fprintf(cmd.OutOrStdout(), "store %s ready (software %s, schema %s)\n", store.Root(), version.SoftwareVersion, version.SchemaVersion)
			return nil
		},
	}
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List analyzed images and their tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			list, err := store.ImageList(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(list))
			for id := range list {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, strings.Join(list[id], ","))
			}
			return nil
		},
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <image-id>",
		Short: "Print every document stored for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if !store.ImagePresent(cmd.Context(), args[0]) {
				return fmt.Errorf("image %s not found", args[0])
			}
			bundle, err := store.LoadImageBundle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), bundle)
		},
	}
}

func analyzedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyzed <image-id>",
		Short: "Report whether all analyzers of an image succeeded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.IsAnalyzed(cmd.Context(), args[0]))
			return nil
		},
	}
}

func deleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <image-id>",
		Short: "Remove an image from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return store.DeleteImage(cmd.Context(), args[0])
		},
	}
}

func gatesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gates <image-id>",
		Short: "Print the gate outputs of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			names, err := store.ListGateOutputs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				lines, err := store.LoadGateOutput(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, line)
				}
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oneconcern/blobimport/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "BLOBIMPORT"

// newRootCmd builds the command tree, with fresh flags
func newRootCmd() *cobra.Command {
	blobimportFlags = flagsT{}
	logger = nil

	rootCmd := &cobra.Command{
		Use:   "blobimport",
		Short: "Import the history of a mercurial repository into a blob store",
		Long: `blobimport converts the changesets, manifests and files of a repository into
content-addressed blobs, and writes them to a blob store.

Branch heads and, optionally, linknodes are recorded under the output path.

Flags may be defaulted from a configuration file (blobimport.yaml in the current
directory or in $HOME/.blobimport, or the file named by BLOBIMPORT_CONFIG) and from
environment variables such as BLOBIMPORT_CHANNEL_SIZE.
`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			level := blobimportFlags.root.logLevel
			if blobimportFlags.root.debug {
				level = dlogger.LogLevelDebug
			}
			l, err := dlogger.GetLogger(level)
			if err != nil {
				return err
			}
			logger = l.With(zap.String("command", cmd.Name()))
			if used := viper.ConfigFileUsed(); used != "" {
				logger.Info("using config file", zap.String("config", used))
			}
			return nil
		},
	}

	addLogLevelFlag(rootCmd)
	addDebugFlag(rootCmd)

	rootCmd.AddCommand(newImportCmd(), newCompactCmd(), newBookmarksCmd())
	return rootCmd
}

// Execute runs the command line. Errors are logged and exit with status 1.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logFatal(err)
	}
}

func initConfig() error {
	viper.Reset()
	if cfg := os.Getenv(envPrefix + "_CONFIG"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.blobimport")
		viper.SetConfigName("blobimport")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// applyConfig defaults the flags which are not set on the command line
// from the config file and the environment.
func applyConfig(cmd *cobra.Command) error {
	if err := initConfig(); err != nil {
		return err
	}

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !viper.IsSet(f.Name) {
			return
		}
		if e := cmd.Flags().Set(f.Name, viper.GetString(f.Name)); e != nil {
			err = fmt.Errorf("invalid configured value for %q: %w", f.Name, e)
		}
	})
	return err
}

package main

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/myrjola/deduce/casefiles"
	"github.com/myrjola/deduce/internal/content"
	"github.com/myrjola/deduce/internal/envstruct"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/logging"
	"github.com/spf13/cobra"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// options are read from the environment and can be overridden with flags.
type options struct {
	ContentDir string `env:"DEDUCE_CONTENT_DIR" envDefault:""`
	SQLiteURL  string `env:"DEDUCE_SQLITE_URL" envDefault:""`
	LogLevel   string `env:"DEDUCE_LOG_LEVEL" envDefault:"warn"`
}

func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, err //nolint:wrapcheck // already annotated
	}
	return logging.New(w, level), nil
}

func (o *options) library(logger *slog.Logger) *content.Library {
	return content.New(casefiles.Open(o.ContentDir), logger)
}

func newRootCmd(lookupEnv func(string) (string, bool)) (*cobra.Command, error) {
	var opts options
	if err := envstruct.Populate(&opts, lookupEnv); err != nil {
		return nil, errors.Wrap(err, "populate options")
	}

	rootCmd := &cobra.Command{ //nolint:exhaustruct // cobra commands set only what they use
		Use:           "deduce",
		Long:          `Command line tools for playing and authoring Deduce cases https://github.com/myrjola/deduce`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.ContentDir, "content-dir", opts.ContentDir,
		"directory of cases, the bundled cases are used when empty")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "debug, info, warn or error")

	rootCmd.AddGroup(contentGroup, playGroup)
	rootCmd.AddCommand(newValidateCmd(&opts), newPlayCmd(&opts), newTranscriptCmd(&opts))
	return rootCmd, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd, err := newRootCmd(os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

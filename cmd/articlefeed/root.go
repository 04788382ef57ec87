package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"articlefeed/internal/config"
	"articlefeed/internal/logger"
	"articlefeed/internal/pipeline"
	"articlefeed/internal/preview"
	"articlefeed/pkg/utils"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errNoOutput = errors.New("at least one of --atom or --rss is required")

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

type options struct {
	atomPath   string
	rssPath    string
	configPath string
	logLevel   string
	preview    bool
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   pipeline.Name + " [--atom PATH] [--rss PATH]",
		Short: "Publish recent community articles as ATOM and RSS feeds",
		Long: `articlefeed fetches the most recently active articles from the community
content API and writes them as an ATOM and/or RSS feed. Existing files are
replaced atomically, so readers never see a partial document.

Example usage:
  articlefeed --atom /var/www/feed/atom.xml --rss /var/www/feed/rss.xml
  articlefeed --atom ~/atom.xml --config ~/.articlefeed.yaml --preview`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd, opts, stderr)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.atomPath, "atom", "", "write the ATOM feed to `PATH`")
	flags.StringVar(&opts.rssPath, "rss", "", "write the RSS feed to `PATH`")
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration `FILE` (default: built-in settings)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log `LEVEL`: debug, info, warn, error (overrides config)")
	flags.BoolVar(&opts.preview, "preview", false, "print a table of the written entries")

	return cmd
}

func generate(cmd *cobra.Command, opts *options, stderr io.Writer) error {
	if opts.atomPath == "" && opts.rssPath == "" {
		return &usageError{errNoOutput}
	}

	atomPath, err := expand(opts.atomPath)
	if err != nil {
		return err
	}

	rssPath, err := expand(opts.rssPath)
	if err != nil {
		return err
	}

	configPath, err := expand(opts.configPath)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log := logger.NewLoggerWithWriter(cfg.Logging.Level, stderr)

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return &usageError{err}
		}

		log.SetLevel(cfg.Logging.Level)
	}

	log.Debug("configuration loaded", "config", cfg.String())

	f, err := pipeline.Run(cmd.Context(), pipeline.Options{
		Config:   cfg,
		Logger:   log,
		AtomPath: atomPath,
		RSSPath:  rssPath,
		Version:  version,
	})
	if err != nil {
		return err
	}

	if opts.preview {
		return preview.Render(cmd.OutOrStdout(), &f)
	}

	return nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	return utils.ExpandPath(path)
}

// run executes the command and maps its outcome to a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "%s: %v\n", pipeline.Name, err)

	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}

	return exitFailure
}

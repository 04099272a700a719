// Command querytrainer serves and grades read-only GraphQL exercises.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	config "github.com/hanpama/querytrainer/internal/config"
	eventbus "github.com/hanpama/querytrainer/internal/eventbus"
	logging "github.com/hanpama/querytrainer/internal/logging"
	trainer "github.com/hanpama/querytrainer/internal/trainer"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions is shared by every subcommand. cfg and log are filled in
// before a subcommand runs.
type rootOptions struct {
	v          *viper.Viper
	configFile string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer

	cfg       config.Config
	log       *zap.Logger
	detachLog func()
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{v: config.New(), stdin: stdin, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "querytrainer",
		Short:         "Read-only GraphQL query trainer",
		Long:          "Answers read-only GraphQL queries over a fixed orders dataset and grades them against a task catalogue.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Bind(opts.v, cmd.Flags()); err != nil {
				return err
			}
			if err := config.ReadFile(opts.v, opts.configFile); err != nil {
				return err
			}
			cfg, err := config.Resolve(opts.v)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			log, err := logging.NewWithWriter(opts.stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			opts.log = log
			eventbus.Use(eventbus.New())
			opts.detachLog = logging.Attach(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.detachLog != nil {
				opts.detachLog()
			}
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (yaml); flags and QUERYTRAINER_* env override it")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	pf.String("format", "json", "log and output format (json|text)")
	pf.String(config.KeyDatasetDir, "", "directory with orders.yaml and users.yaml (default: built-in dataset)")
	pf.String(config.KeyTasksFile, "", "task catalogue file (default: built-in tasks)")
	pf.String(config.KeyProgressDSN, "memory", `progress store: "memory" or a sqlite file path`)
	_ = opts.v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = opts.v.BindPFlag(config.KeyLogFormat, pf.Lookup("format"))

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newGradeCommand(opts))
	cmd.AddCommand(newTasksCommand(opts))
	cmd.AddCommand(newSchemaCommand(opts))
	return cmd
}

func (o *rootOptions) openTrainer() (*trainer.Trainer, error) {
	return trainer.Open(trainer.Options{
		DatasetDir:  o.cfg.Dataset.Dir,
		TasksFile:   o.cfg.Tasks.File,
		ProgressDSN: o.cfg.Progress.DSN,
	})
}

func (o *rootOptions) textOutput() bool { return o.cfg.Log.Format == "text" }

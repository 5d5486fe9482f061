// Command xifront is a terminal front end for an xi-style editing engine.
package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/dshills/xifront/internal/config"
)

// Set via ldflags.
var version = "dev"

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("xifront failed")
		return 1
	}
	return 0
}

// flags are the command-line overrides applied on top of the loaded config.
type flags struct {
	configPath string
	engine     string
	engineArgs []string
	logLevel   string
	logFile    string
	keymap     string
}

func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.engine != "" {
		cfg.Engine.Command = f.engine
	}
	if cmd.Flags().Changed("engine-arg") {
		cfg.Engine.Args = f.engineArgs
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if f.keymap != "" {
		cfg.Keymap.Script = f.keymap
	}
}

func (f *flags) load(cmd *cobra.Command) (config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	f.apply(cmd, &cfg)
	return cfg, cfg.Validate()
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "xifront [file...]",
		Short:         "Terminal front end for an xi-style editing engine",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), cfg, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&f.engine, "engine", "", "engine command")
	pf.StringArrayVar(&f.engineArgs, "engine-arg", nil, "engine argument (repeatable)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&f.logFile, "log-file", "", "log file used while the screen is active")
	pf.StringVar(&f.keymap, "keymap", "", "Lua keymap script")

	root.AddCommand(newConfigCmd(f))
	root.AddCommand(newVersionCmd())
	return root
}

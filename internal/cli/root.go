package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spoilerviewer/internal/menu"
	"spoilerviewer/internal/recency"
	"spoilerviewer/internal/source"
)

// Options lets tests inject writers and a logger.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

type app struct {
	opts     Options
	flags    Flags
	session  *Session
	finished bool
}

// NewRootCommand builds the stand-in host. Each command runs against a
// Session built in PersistentPreRunE.
func NewRootCommand(opts Options) *cobra.Command {
	return (&app{opts: opts}).command()
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "spoilerviewer",
		Short:         "Open the latest randomizer spoiler or ICDL context in the spoiler viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := NewSession(a.flags, a.opts.Logger)
			if err != nil {
				return err
			}
			a.session = s
			// Compute the identifier up front so every later reader sees the
			// finished value.
			s.Identity.Get()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigPath, "config", "", "Path to the YAML host configuration")
	pf.BoolVarP(&a.flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&a.flags.JSONLogs, "json-logs", false, "Log as JSON instead of console text")
	pf.StringVar(&a.flags.PrimaryDir, "primary-dir", "", "Directory holding the most recent RawSpoiler.json")
	pf.StringVar(&a.flags.SecondaryRoot, "secondary-root", "", "Root of the dated ICDL output directories")
	pf.StringVar(&a.flags.Viewer, "viewer", "", "Path to the viewer artifact")
	pf.StringVar(&a.flags.Runtime, "runtime", "", "Program that runs the viewer artifact (e.g. java)")
	pf.StringArrayVar(&a.flags.Modules, "module", nil, "Companion module reported as loaded (repeatable)")
	pf.StringVar(&a.flags.TracePath, "trace", "", "Write the action trace to this path")
	pf.StringVar(&a.flags.AppVersion, "app-version", "", "Semantic version reported before the build suffix")

	current := func() *Session { return a.session }
	root.AddCommand(
		newVersionCmd(current),
		newMenuCmd(current),
		newOpenCmd(current),
		newFingerprintCmd(current),
		newLatestCmd(current),
	)

	if a.opts.Stdout != nil {
		root.SetOut(a.opts.Stdout)
	}
	if a.opts.Stderr != nil {
		root.SetErr(a.opts.Stderr)
	}
	return root
}

// finish writes the trace if requested and flushes the logger. Cobra skips
// PersistentPostRunE when RunE fails, so Run also calls it on that path; only
// the first call does anything.
func (a *app) finish() error {
	s := a.session
	if s == nil || a.finished {
		return nil
	}
	a.finished = true
	for _, id := range s.Recorder.Unfinished() {
		s.Logger.Warn("action ended without an outcome", zap.String("action", id))
	}
	var err error
	if a.flags.TracePath != "" {
		if werr := s.WriteTrace(a.flags.TracePath); werr != nil {
			err = internalError(werr)
		}
	}
	_ = s.Logger.Sync()
	return err
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return invalidInvocationf("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func newVersionCmd(session func() *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build identifier",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), session().Mod.Version())
			return nil
		},
	}
}

func newMenuCmd(session func() *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the menu the host would render",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := session()
			screen := s.Mod.Menu(s.Host)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", screen.Title, screen.Version)
			for _, a := range screen.Actions {
				fmt.Fprintf(out, "  %-4s %s\n", a.ID(), a.Label())
			}
			return nil
		},
	}
}

func newOpenCmd(session func() *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "open raw|ctx",
		Short: "Invoke a menu action: open RawSpoiler.json or the latest ICDL ctx.json",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := source.ParseMode(args[0])
			if err != nil {
				return invalidInvocationf("%v", err)
			}
			s := session()
			action, ok := s.Mod.Menu(s.Host).Find(string(mode))
			if !ok {
				return invalidInvocationf("action %q is not available: companion module %q is not loaded", mode, menu.CompanionModule)
			}

			out := action.Invoke(cmd.Context())
			if !out.Opened {
				return actionFailed(fmt.Sprintf("%s did not open", mode.Filename()), out.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Target)
			return nil
		},
	}
}

func newFingerprintCmd(session func() *Session) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint FILE...",
		Short: "Print the digest code of each file",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return invalidInvocationf("%s expects at least one file", cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session()
			var failed error
			for _, p := range args {
				code, err := s.Hasher.DigestCode(p)
				if err != nil {
					s.Logger.Error("digest failed", zap.String("path", p), zap.Error(err))
					failed = errors.Join(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%03d  %s\n", int(code), p)
			}
			if failed != nil {
				return actionFailed("some files could not be digested", failed)
			}
			return nil
		},
	}
}

func newLatestCmd(session func() *Session) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "latest DIR",
		Short: "Print the most recently modified subdirectory, descending --depth levels",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return invalidInvocationf("--depth must be at least 1, got %d", depth)
			}
			entry, ok, err := recency.Descend(args[0], depth)
			if err != nil {
				return actionFailed("recency descent failed", err)
			}
			if !ok {
				session().Logger.Warn("no subdirectories", zap.String("path", args[0]), zap.Int("depth", depth))
				return actionFailed(fmt.Sprintf("no subdirectories under %s", args[0]), nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.Path)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, "Number of levels to descend")
	return cmd
}

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the semantic
// exit code plus any error.
func Run(ctx context.Context, args []string, opts Options) (int, error) {
	a := &app{opts: opts}
	root := a.command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if ferr := a.finish(); ferr != nil {
			err = errors.Join(err, ferr)
		}
		return ExitCode(err), err
	}
	return ExitSuccess, nil
}

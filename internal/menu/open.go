package menu

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spoilerviewer/internal/errs"
	"spoilerviewer/internal/source"
	"spoilerviewer/internal/trace"
)

// CompanionModule is the module whose presence enables the ctx.json action.
const CompanionModule = "ICDL Mod"

// TargetResolver maps a source mode to the file to open.
type TargetResolver interface {
	Resolve(mode source.Mode) (string, error)
}

// ViewerLauncher starts the viewer against a file.
type ViewerLauncher interface {
	LaunchViewer(viewerPath, targetPath string) error
}

// Outcome reports what an action did.
type Outcome struct {
	Invocation string
	Target     string
	Opened     bool
	Err        error
}

// OpenAction resolves the file for one source mode and opens it in the
// viewer.
type OpenAction struct {
	Mode       source.Mode
	ViewerPath string

	label    string
	resolver TargetResolver
	launcher ViewerLauncher
	logger   *zap.Logger
	sink     trace.Sink
}

// NewOpenAction creates an OpenAction. The label defaults to
// "Open <filename>". Nil logger and sink become no-ops.
func NewOpenAction(mode source.Mode, viewerPath string, resolver TargetResolver, launcher ViewerLauncher, logger *zap.Logger, sink trace.Sink) *OpenAction {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = trace.Discard
	}
	return &OpenAction{
		Mode:       mode,
		ViewerPath: viewerPath,
		label:      defaultLabel(mode),
		resolver:   resolver,
		launcher:   launcher,
		logger:     logger,
		sink:       sink,
	}
}

func defaultLabel(mode source.Mode) string {
	if mode == source.ModeSecondary {
		return "Open ICDL " + mode.Filename()
	}
	return "Open " + mode.Filename()
}

// WithLabel overrides the button text (for localized hosts).
func (a *OpenAction) WithLabel(label string) *OpenAction {
	a.label = label
	return a
}

func (a *OpenAction) ID() string    { return string(a.Mode) }
func (a *OpenAction) Label() string { return a.label }

// Invoke resolves the target and, only when that succeeds, starts the
// viewer. Every failure is logged with the mode and path involved and
// recorded as a trace event; the host sees a no-op.
func (a *OpenAction) Invoke(ctx context.Context) (out Outcome) {
	out.Invocation = uuid.NewString()
	log := a.logger.With(
		zap.String("invocation", out.Invocation),
		zap.String("mode", string(a.Mode)),
	)
	a.record(trace.Event{Kind: trace.EventActionInvoked})

	defer func() {
		if r := recover(); r != nil {
			out.Opened = false
			out.Err = fmt.Errorf("action %s panicked: %v", a.ID(), r)
			log.Error("action panicked", zap.Any("panic", r))
			kind := trace.EventResolveFailed
			if out.Target != "" {
				kind = trace.EventLaunchFailed
			}
			a.record(trace.Event{Kind: kind, Path: out.Target, Reason: reason(out.Err)})
		}
	}()

	target, err := a.resolver.Resolve(a.Mode)
	if err != nil {
		out.Err = err
		log.Error("no file to open", zap.Error(err))
		a.record(trace.Event{Kind: trace.EventResolveFailed, Reason: reason(err)})
		return out
	}
	out.Target = target
	a.record(trace.Event{Kind: trace.EventTargetResolved, Path: target})

	if err := ctx.Err(); err != nil {
		out.Err = err
		log.Warn("action cancelled before launch", zap.String("path", target), zap.Error(err))
		return out
	}

	log.Info("opening file", zap.String("path", target), zap.String("viewer", a.ViewerPath))
	if err := a.launcher.LaunchViewer(a.ViewerPath, target); err != nil {
		out.Err = err
		log.Error("viewer did not start",
			zap.String("path", target),
			zap.String("viewer", a.ViewerPath),
			zap.Error(err),
		)
		a.record(trace.Event{Kind: trace.EventLaunchFailed, Path: target, Reason: reason(err)})
		return out
	}
	out.Opened = true
	a.record(trace.Event{Kind: trace.EventViewerLaunched, Path: target})
	return out
}

func (a *OpenAction) record(e trace.Event) {
	e.Action = a.ID()
	e.Mode = string(a.Mode)
	trace.SafeRecord(a.sink, e)
}

// reason maps an error to its stable kind code.
func reason(err error) string {
	switch errs.Kind(err) {
	case errs.ErrNotFound:
		return "NotFound"
	case errs.ErrIO:
		return "IOError"
	case errs.ErrLaunchFailed:
		return "LaunchFailed"
	default:
		return "Internal"
	}
}

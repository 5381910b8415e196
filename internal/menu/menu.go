// Package menu is the contract between the shim and the host's mod menu:
// a display name, a version string and a list of named actions.
package menu

import (
	"context"

	"go.uber.org/zap"

	"spoilerviewer/internal/fingerprint"
	"spoilerviewer/internal/source"
	"spoilerviewer/internal/trace"
)

// Host is what the shim asks of the host menu system.
type Host interface {
	// HasModule reports whether the named companion module is loaded.
	HasModule(name string) bool
}

// Action is a menu entry the host can invoke.
type Action interface {
	// ID is a stable machine name ("raw", "ctx").
	ID() string
	// Label is the text shown on the button.
	Label() string
	// Invoke runs the action. Failures are logged and reported through the
	// Outcome; Invoke never panics and never aborts the host.
	Invoke(ctx context.Context) Outcome
}

// ActionProvider contributes zero or more actions depending on what the
// host reports.
type ActionProvider interface {
	Actions(host Host) []Action
}

// Static always contributes its actions.
type Static []Action

func (s Static) Actions(Host) []Action { return s }

// Companion contributes Action only when the host reports Module as loaded.
type Companion struct {
	Module string
	Action Action
}

func (c Companion) Actions(host Host) []Action {
	if host == nil || !host.HasModule(c.Module) {
		return nil
	}
	return []Action{c.Action}
}

// Mod is the shim as the host sees it.
type Mod struct {
	Name      string
	identity  *fingerprint.Identity
	providers []ActionProvider
}

// NewMod creates a Mod. The identity is read lazily so the host can ask for
// the version from any goroutine.
func NewMod(name string, identity *fingerprint.Identity, providers ...ActionProvider) *Mod {
	return &Mod{Name: name, identity: identity, providers: providers}
}

// Version returns the BuildIdentifier string.
func (m *Mod) Version() string {
	if m.identity == nil {
		return "0.0.0+" + fingerprint.UnknownSuffix
	}
	return m.identity.String()
}

// Screen is a built menu.
type Screen struct {
	Title   string
	Version string
	Actions []Action
}

// Find returns the action with the given ID.
func (s Screen) Find(id string) (Action, bool) {
	for _, a := range s.Actions {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// Menu asks every provider for its actions, in registration order.
func (m *Mod) Menu(host Host) Screen {
	s := Screen{Title: m.Name, Version: m.Version()}
	for _, p := range m.providers {
		s.Actions = append(s.Actions, p.Actions(host)...)
	}
	return s
}

// ModuleSet is a Host backed by a fixed list of loaded module names.
type ModuleSet map[string]struct{}

// NewModuleSet creates a ModuleSet.
func NewModuleSet(names ...string) ModuleSet {
	s := make(ModuleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s ModuleSet) HasModule(name string) bool {
	_, ok := s[name]
	return ok
}

// Deps bundles what the standard menu's actions need.
type Deps struct {
	ViewerPath string
	Resolver   TargetResolver
	Launcher   ViewerLauncher
	Logger     *zap.Logger
	Sink       trace.Sink
}

// NewSpoilerViewer builds the standard menu: "Open RawSpoiler.json" always,
// "Open ICDL ctx.json" only when the companion module is loaded.
func NewSpoilerViewer(name string, identity *fingerprint.Identity, d Deps) *Mod {
	raw := NewOpenAction(source.ModePrimary, d.ViewerPath, d.Resolver, d.Launcher, d.Logger, d.Sink)
	icdl := NewOpenAction(source.ModeSecondary, d.ViewerPath, d.Resolver, d.Launcher, d.Logger, d.Sink)
	return NewMod(name, identity,
		Static{raw},
		Companion{Module: CompanionModule, Action: icdl},
	)
}

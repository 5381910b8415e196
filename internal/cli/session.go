package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"spoilerviewer/internal/config"
	"spoilerviewer/internal/fingerprint"
	"spoilerviewer/internal/launch"
	"spoilerviewer/internal/logging"
	"spoilerviewer/internal/menu"
	"spoilerviewer/internal/source"
	"spoilerviewer/internal/trace"
)

// Session is everything a command needs, built once per process from the
// flags and the optional config file.
type Session struct {
	Config   config.Config
	Logger   *zap.Logger
	Identity *fingerprint.Identity
	Hasher   *fingerprint.Hasher
	Router   *source.Router
	Launcher *launch.Launcher
	Recorder *trace.Recorder
	Mod      *menu.Mod
	Host     menu.Host
}

// loadConfig reads the config file (if any) and applies flag overrides.
func loadConfig(f Flags) (config.Config, error) {
	cfg := config.Default()
	if f.ConfigPath != "" {
		loaded, err := config.Load(f.ConfigPath)
		if err != nil {
			return config.Config{}, configError(err)
		}
		cfg = loaded
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{f.PrimaryDir, &cfg.Sources.PrimaryDir},
		{f.SecondaryRoot, &cfg.Sources.SecondaryRoot},
		{f.Viewer, &cfg.Viewer.Artifact},
	}
	for _, o := range overrides {
		p, err := cleanPath(o.flag)
		if err != nil {
			return config.Config{}, err
		}
		if p != "" {
			*o.dst = p
		}
	}
	if f.Runtime != "" {
		cfg.Viewer.Runtime = f.Runtime
	}
	if f.AppVersion != "" {
		cfg.Version = f.AppVersion
	}
	cfg.Modules = append(cfg.Modules, f.Modules...)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, configError(err)
	}
	return cfg, nil
}

// NewSession wires the shim's components together.
func NewSession(f Flags, logger *zap.Logger) (*Session, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger, err = logging.New(logging.Options{Verbose: f.Verbose, Console: !f.JSONLogs})
		if err != nil {
			return nil, internalError(err)
		}
	}

	s := &Session{
		Config:   cfg,
		Logger:   logger,
		Hasher:   fingerprint.NewHasher(fingerprint.Digest(cfg.Fingerprint.Digest)),
		Router:   source.NewRouter(cfg.Sources.PrimaryDir, cfg.Sources.SecondaryRoot),
		Launcher: launch.New(cfg.Viewer.Runtime, cfg.Viewer.RuntimeArgs, logger.Named("launch")),
		Recorder: trace.NewRecorder(),
		Host:     menu.NewModuleSet(cfg.Modules...),
	}
	s.Identity = fingerprint.NewIdentity(s.computeIdentity)
	s.Mod = menu.NewSpoilerViewer(cfg.Name, s.Identity, menu.Deps{
		ViewerPath: cfg.Viewer.Artifact,
		Resolver:   s.Router,
		Launcher:   s.Launcher,
		Logger:     logger.Named("menu"),
		Sink:       s.Recorder,
	})
	return s, nil
}

// fingerprintInputs returns the configured pair, or the viewer artifact
// and the running executable.
func (s *Session) fingerprintInputs() ([2]string, error) {
	if in := s.Config.Fingerprint.Inputs; len(in) == 2 {
		return [2]string{in[0], in[1]}, nil
	}
	self, err := os.Executable()
	if err != nil {
		return [2]string{}, fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}
	return [2]string{s.Config.Viewer.Artifact, self}, nil
}

func (s *Session) computeIdentity() fingerprint.BuildIdentifier {
	v := s.Config.VersionTriple()
	inputs, err := s.fingerprintInputs()
	if err != nil {
		s.Logger.Warn("build identifier degraded", zap.Error(err))
		return fingerprint.BuildIdentifier{Version: v, Degraded: true}
	}
	id, err := s.Hasher.ComputeBuildIdentifier(inputs[0], inputs[1], v)
	if err != nil {
		s.Logger.Warn("build identifier degraded",
			zap.Strings("inputs", inputs[:]),
			zap.Error(err),
		)
		return id
	}
	s.Logger.Debug("build identifier computed", zap.String("build", id.String()))
	return id
}

// WriteTrace writes the canonical trace of this session's actions.
func (s *Session) WriteTrace(path string) error {
	return trace.WriteFile(path, s.Recorder.Trace(s.Mod.Version()))
}

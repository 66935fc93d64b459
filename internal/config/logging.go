package config

import (
	"context"
	"io"
	"log/slog"
)

// NewLogger creates the text logger used by all commands.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.DebugContext(ctx, "Config: log_level", "value", s.LogLevel)
	logger.DebugContext(ctx, "Config: color", "value", s.Color)
	logger.DebugContext(ctx, "Config: export", "manifest", s.Export.Manifest, "sqlite", s.Export.SQLite)
}

// LogServe logs the settings relevant to the serve command.
func LogServe(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}
	logger.InfoContext(ctx, "Config: root", "value", s.Root)

	logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}
}

// LogPolicy logs the effective policy at debug level.
func LogPolicy(p *Policy, logger *slog.Logger) {
	rules := make([]string, len(p.CopyRules))
	for i, r := range p.CopyRules {
		rules[i] = r.String()
	}
	logger.Debug("Policy loaded",
		"extension", p.PrimaryExtension,
		"copy", rules,
		"rewrite_extension", p.RewriteExtension,
		"excluded_files", len(p.ExcludedFiles),
		"excluded_folders", len(p.ExcludedFolders),
	)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.String("username", s.Basic.Username),
		slog.String("password", "****"),
		slog.Any("api_keys", keys),
	)
}

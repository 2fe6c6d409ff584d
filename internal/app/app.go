package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/rcpgrid/internal/diagram"
	"github.com/specialistvlad/rcpgrid/internal/kindreg"
	"github.com/specialistvlad/rcpgrid/internal/publish"
)

// Dialer opens the connection a compiled schedule is published over.
type Dialer func(ctx context.Context, opts publish.DialOptions) (publish.Emitter, error)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	kinds   *kindreg.Registry
	diagram *diagram.Diagram
	dial    Dialer
}

// Option customizes an App.
type Option func(*App)

// WithDialer replaces the socket.io dialer used for publishing.
func WithDialer(d Dialer) Option {
	return func(a *App) { a.dial = d }
}

// WithKinds makes the app use a pre-configured kind registry instead of
// loading the built-in kinds itself.
func WithKinds(reg *kindreg.Registry) Option {
	return func(a *App) { a.kinds = reg }
}

// NewApp is the constructor for the main application. Rendered schedules go
// to outW unless the config names an output file; logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		dial:   publish.Dial,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the kind registry. It is nil until kinds are loaded.
func (a *App) Registry() *kindreg.Registry {
	return a.kinds
}

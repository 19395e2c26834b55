package app

import (
	"fmt"
	"io"
	"os"

	"hawk/pkg/logging"
)

// Application bootstraps hawk: it configures logging and wires the services
// every command works with.
//
// Example usage:
//
//	application, err := app.NewApplication(app.NewConfig(false, false, ""))
//	if err != nil {
//	    return fmt.Errorf("failed to start hawk: %w", err)
//	}
//	result, err := application.Services().Manager.Sync(ctx, req)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication configures logging and initializes all services.
func NewApplication(cfg *Config) (*Application, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cfg.logWriter())

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Cannot start hawk from %s", cfg.Home)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	logging.Debug("Bootstrap", "hawk home %s", services.Home)
	return &Application{config: cfg, services: services}, nil
}

// logWriter picks the log destination. Logs default to stderr so command
// output on stdout stays parseable.
func (c *Config) logWriter() io.Writer {
	switch {
	case c.Silent:
		return io.Discard
	case c.LogOutput != nil:
		return c.LogOutput
	}
	return os.Stderr
}

// Services returns the wired services.
func (a *Application) Services() *Services { return a.services }

// Config returns the configuration the application was built from.
func (a *Application) Config() *Config { return a.config }

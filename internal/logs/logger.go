package logs

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide application logger, configured via Init.
var Logger = logrus.New()

// Options control logger initialization.
type Options struct {
	Level  string // trace|debug|info|warning|error|fatal
	Format string // text|json
}

// Init configures the shared logger from the loaded config.
func Init(opts Options) {
	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	if opts.Format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	}
	Logger.SetOutput(os.Stdout)
}

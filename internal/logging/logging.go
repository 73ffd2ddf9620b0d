package logging

import (
	"go.uber.org/zap"
)

// Logger is the shared sugared logger. It defaults to a no-op logger so
// library code can log before Init runs (and during tests).
var Logger = zap.NewNop().Sugar()

// Init configures the global logger. Debug mode uses the development
// config with full output; otherwise only warnings and above are shown.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		panic("initializing logger: " + err.Error())
	}
	Logger = logger.Sugar()
}

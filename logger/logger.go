package logger

import (
	"os"

	"go.uber.org/zap"
)

// Log is the process-wide logger. Init runs once in main; tests install
// a nop logger instead.
var Log *zap.SugaredLogger

// Init builds the global logger. ESCAPEROOM_DEBUG=1 switches to the
// development config (console encoding, debug level) for local play
// sessions.
func Init() {
	cfg := zap.NewProductionConfig()
	if os.Getenv("ESCAPEROOM_DEBUG") == "1" {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

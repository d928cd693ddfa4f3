// Package logger builds slog loggers with environment-driven level and
// format, shared by every component in the module.
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithTextFormatter(),
//	    logger.WithAttr(slog.String("app", "baraka")),
//	)
package logger

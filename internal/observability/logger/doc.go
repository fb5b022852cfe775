// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init(). Los componentes
//     de dominio (keystore, certs) NO la usan directamente: reciben un *zap.Logger
//     en su constructor y sólo caen al singleton si les pasan nil.
//   - Context Scoping: cada request HTTP puede tener su propio logger "scoped"
//     (request_id, path) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.Named("keystore")
//	log.Info("certificate found", logger.Subject(c.Subject), logger.Expiration(c.NotAfter))
package logger

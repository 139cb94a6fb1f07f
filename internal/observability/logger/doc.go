// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request puede llevar su logger "scoped" con campos
//     adicionales (request_id, session_id, provider) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON y "test"
//     descarta todo.
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,
//	    Level: cfg.Log.Level,
//	})
//	defer logger.Sync()
//
// En el flujo OAuth:
//
//	log := logger.From(ctx).With(logger.Provider("github"), logger.Op("Flow.Initiate"))
//	log.Info("redirecting to provider")
package logger

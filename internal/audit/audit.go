// Package audit registra eventos del ciclo de vida de la sesión OAuth
// (autorizada, rechazada, cerrada) en un logger "audit" separado.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/oauthflow/internal/observability/logger"
)

// Eventos.
const (
	SessionAuthorized = "session_authorized"
	SessionDenied     = "session_denied"
	SessionRefreshed  = "session_refreshed"
	SessionLoggedOut  = "session_logged_out"
)

// Log escribe un evento de auditoría con el logger del contexto (que ya
// trae request_id). Nunca pasar tokens sin enmascarar en fields.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("event", event),
		zap.String("ts", time.Now().UTC().Format(time.RFC3339Nano)),
	}
	logger.From(ctx).Named("audit").Info(event, append(base, fields...)...)
}

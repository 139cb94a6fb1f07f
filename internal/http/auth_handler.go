package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/oauthflow/internal/audit"
	"github.com/dropDatabas3/oauthflow/internal/oauth"
	"github.com/dropDatabas3/oauthflow/internal/observability/logger"
	"github.com/dropDatabas3/oauthflow/internal/session"
	"github.com/dropDatabas3/oauthflow/internal/util"
)

// AuthHandler expone el flujo OAuth2 a un navegador. Cada request arma su
// propio oauth.Flow a partir de la sesión guardada, así que nunca se comparte
// un Flow entre goroutines.
type AuthHandler struct {
	creds       oauth.ClientCredentials
	endpoint    oauth.Endpoint
	redirectURL string
	fetcher     oauth.Fetcher
	sessions    *session.Store
	cookies     *CookieCodec

	refreshes singleflight.Group
}

// NewAuthHandler crea el handler.
func NewAuthHandler(creds oauth.ClientCredentials, endpoint oauth.Endpoint, redirectURL string,
	fetcher oauth.Fetcher, sessions *session.Store, cookies *CookieCodec) *AuthHandler {
	return &AuthHandler{
		creds:       creds,
		endpoint:    endpoint,
		redirectURL: redirectURL,
		fetcher:     fetcher,
		sessions:    sessions,
		cookies:     cookies,
	}
}

// sessionView es lo que ve el cliente: el access token va enmascarado.
type sessionView struct {
	Authorized       bool            `json:"authorized"`
	State            oauth.State     `json:"state"`
	Provider         string          `json:"provider"`
	TokenType        string          `json:"token_type,omitempty"`
	AccessToken      string          `json:"access_token,omitempty"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	UserInfo         *oauth.UserInfo `json:"user_info,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorReason      string          `json:"error_reason,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

func (h *AuthHandler) view(s oauth.Session) sessionView {
	v := sessionView{
		Authorized:       s.Authorized,
		State:            s.State,
		Provider:         h.endpoint.Provider,
		TokenType:        s.TokenType,
		AccessToken:      util.MaskToken(s.AccessToken),
		UserInfo:         s.UserInfo,
		Error:            s.Error,
		ErrorReason:      s.ErrorReason,
		ErrorDescription: s.ErrorDescription,
	}
	if !s.AccessTokenExpiration.IsZero() {
		exp := s.AccessTokenExpiration.UTC()
		v.ExpiresAt = &exp
	}
	return v
}

func (h *AuthHandler) newFlow(ctx context.Context, stored oauth.Session, rd oauth.Redirector) *oauth.Flow {
	return oauth.New(h.creds, h.endpoint, rd,
		oauth.WithRedirectURL(h.redirectURL),
		oauth.WithFetcher(h.fetcher),
		oauth.WithAccessToken(stored.AccessToken),
		oauth.WithLogger(logger.From(ctx).Named("oauth")),
	)
}

// initiate corre Initiate sobre la sesión guardada. Si la revalidación del
// token guardado falla por transporte, descarta el token y reintenta sin él,
// así el usuario cae en el authorize del proveedor en vez de un 502.
func (h *AuthHandler) initiate(ctx context.Context, log *zap.Logger, stored oauth.Session) (*oauth.Flow, string, error) {
	var target string
	rd := oauth.RedirectFunc(func(u string) { target = u })
	f := h.newFlow(ctx, stored, rd)
	err := f.Initiate(ctx)
	if err == nil || strings.TrimSpace(stored.AccessToken) == "" {
		return f, target, err
	}
	log.Warn("stored token could not be re-validated, redirecting to authorize", logger.Err(err))
	f = h.newFlow(ctx, oauth.Session{}, rd)
	if err := f.Initiate(ctx); err != nil {
		return nil, "", err
	}
	return f, target, nil
}

// ensureSession lee el session id del cookie o emite uno nuevo.
func (h *AuthHandler) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if sid, err := h.cookies.Read(r); err == nil {
		return sid, nil
	}
	sid := uuid.NewString()
	if err := h.cookies.Issue(w, sid); err != nil {
		return "", err
	}
	return sid, nil
}

func (h *AuthHandler) log(r *http.Request, op, sid string) *zap.Logger {
	return logger.From(r.Context()).With(
		logger.Layer("handler"),
		logger.Op(op),
		logger.Provider(h.endpoint.Provider),
		logger.SessionID(sid),
	)
}

// Login handles GET /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := h.ensureSession(w, r)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "server_error", "could not issue session")
		return
	}
	log := h.log(r, "AuthHandler.Login", sid)

	stored, _, err := h.sessions.Load(ctx, sid)
	if err != nil {
		log.Warn("stored session unreadable, starting over", logger.Err(err))
	}

	f, target, err := h.initiate(ctx, log, stored)
	if err != nil {
		log.Error("initiate failed", logger.Err(err))
		WriteError(w, http.StatusBadGateway, "provider_unavailable", "the provider could not be reached")
		return
	}

	if err := h.sessions.Save(ctx, sid, f.Session()); err != nil {
		log.Error("save session failed", logger.Err(err))
	}

	w.Header().Set("Cache-Control", "no-store")
	if target == "" {
		http.Redirect(w, r, "/auth/me", http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles GET /auth/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, err := h.ensureSession(w, r)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "server_error", "could not issue session")
		return
	}
	log := h.log(r, "AuthHandler.Callback", sid)

	stored, _, err := h.sessions.Load(ctx, sid)
	if err != nil {
		log.Warn("stored session unreadable", logger.Err(err))
	}

	q := r.URL.Query()
	if strings.TrimSpace(q.Get("code")) == "" && strings.TrimSpace(q.Get("error")) == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "code or error parameter required")
		return
	}

	f := h.newFlow(ctx, stored, nil)
	if err := f.HandleCallback(ctx, q); err != nil {
		log.Error("callback failed", logger.Err(err))
		WriteError(w, http.StatusBadGateway, "provider_unavailable", "the provider could not be reached")
		return
	}

	s := f.Session()
	if err := h.sessions.Save(ctx, sid, s); err != nil {
		log.Error("save session failed", logger.Err(err))
	}

	if !s.Authorized {
		audit.Log(ctx, audit.SessionDenied,
			logger.Provider(h.endpoint.Provider),
			logger.SessionID(sid),
			logger.String("error", s.Error),
			logger.String("error_reason", s.ErrorReason),
		)
		WriteError(w, http.StatusUnauthorized, s.Error, s.ErrorDescription)
		return
	}
	email := ""
	if s.UserInfo != nil {
		email = util.MaskEmail(s.UserInfo.Email)
	}
	audit.Log(ctx, audit.SessionAuthorized,
		logger.Provider(h.endpoint.Provider),
		logger.SessionID(sid),
		logger.String("email", email),
		logger.Token(util.MaskToken(s.AccessToken)),
	)
	WriteJSON(w, http.StatusOK, h.view(s))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sid, err := h.cookies.Read(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "no_session", "login first")
		return
	}
	s, ok, err := h.sessions.Load(r.Context(), sid)
	if err != nil {
		h.log(r, "AuthHandler.Me", sid).Error("load session failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "server_error", "session unavailable")
		return
	}
	if !ok {
		WriteError(w, http.StatusUnauthorized, "no_session", "login first")
		return
	}
	WriteJSON(w, http.StatusOK, h.view(s))
}

type refreshResult struct {
	Authorized  bool        `json:"authorized"`
	RedirectURL string      `json:"redirect_url,omitempty"`
	Session     sessionView `json:"session"`
}

// Refresh handles POST /auth/refresh: re-validates the stored token without
// a browser redirect. Concurrent calls for the same session share one
// provider round-trip.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sid, err := h.cookies.Read(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "no_session", "login first")
		return
	}
	log := h.log(r, "AuthHandler.Refresh", sid)

	v, err, shared := h.refreshes.Do(sid, func() (any, error) {
		// desacoplado del request que ganó la carrera
		ctx := context.WithoutCancel(r.Context())
		stored, _, err := h.sessions.Load(ctx, sid)
		if err != nil {
			return nil, err
		}
		f, target, err := h.initiate(ctx, log, stored)
		if err != nil {
			return nil, err
		}
		s := f.Session()
		if err := h.sessions.Save(ctx, sid, s); err != nil {
			return nil, err
		}
		if s.Authorized {
			audit.Log(ctx, audit.SessionRefreshed, logger.Provider(h.endpoint.Provider), logger.SessionID(sid))
		}
		return refreshResult{Authorized: s.Authorized, RedirectURL: target, Session: h.view(s)}, nil
	})
	if err != nil {
		log.Error("refresh failed", logger.Err(err))
		WriteError(w, http.StatusBadGateway, "provider_unavailable", "the provider could not be reached")
		return
	}
	log.Debug("refresh done", logger.Bool("shared", shared))
	WriteJSON(w, http.StatusOK, v)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, err := h.cookies.Read(r); err == nil {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			h.log(r, "AuthHandler.Logout", sid).Warn("delete session failed", logger.Err(err))
		}
		audit.Log(r.Context(), audit.SessionLoggedOut, logger.Provider(h.endpoint.Provider), logger.SessionID(sid))
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

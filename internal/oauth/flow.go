// Package oauth implementa el lado cliente del flujo authorization code de
// OAuth 2.0 para proveedores que no hablan OIDC: arma el redirect al
// authorize, canjea el code devuelto por un access token y con ese token
// trae el perfil del usuario.
//
// Los token endpoints no coinciden en el formato (Facebook históricamente
// respondía "access_token=...&expires=...", GitHub y Google responden
// JSON); ParseTokenResponse normaliza ambas formas.
package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/oauthflow/internal/metrics"
	"github.com/dropDatabas3/oauthflow/internal/observability/logger"
	"github.com/dropDatabas3/oauthflow/internal/util"
	"go.uber.org/zap"
)

// Flow lleva una sesión de usuario a través del flujo authorization code.
//
// Un Flow no es seguro para uso concurrente: las operaciones reemplazan el
// snapshot de sesión sin lock y gana el último que escribe. Quien comparta
// un Flow debe serializar Initiate y HandleCallback.
type Flow struct {
	creds       ClientCredentials
	endpoint    Endpoint
	redirectURL string
	redirector  Redirector
	fetcher     Fetcher
	log         *zap.Logger
	now         func() time.Time

	session Session
}

// Option configura un Flow.
type Option func(*Flow)

// WithRedirectURL setea el redirect_uri que se envía al proveedor.
func WithRedirectURL(u string) Option { return func(f *Flow) { f.redirectURL = u } }

// WithAccessToken siembra el flujo con un token guardado; Initiate intenta
// revalidarlo antes de redirigir.
func WithAccessToken(tok string) Option { return func(f *Flow) { f.session.AccessToken = tok } }

// WithFetcher reemplaza el HTTPFetcher por defecto.
func WithFetcher(fe Fetcher) Option { return func(f *Flow) { f.fetcher = fe } }

// WithLogger reemplaza el logger "oauth" por defecto.
func WithLogger(l *zap.Logger) Option { return func(f *Flow) { f.log = l } }

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

// New arma un Flow. Las credenciales tienen que venir de NewClientCredentials.
func New(creds ClientCredentials, endpoint Endpoint, redirector Redirector, opts ...Option) *Flow {
	f := &Flow{
		creds:      creds,
		endpoint:   endpoint,
		redirector: redirector,
		fetcher:    NewHTTPFetcher(nil),
		now:        time.Now,
		session:    Session{State: StateUnauthenticated},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Named("oauth")
	}
	f.log = f.log.With(logger.Provider(endpoint.Provider), logger.ClientID(creds.ID()))
	return f
}

// Session devuelve una copia de la sesión actual.
func (f *Flow) Session() Session {
	s := f.session
	if s.UserInfo != nil {
		ui := *s.UserInfo
		s.UserInfo = &ui
	}
	return s
}

// Endpoint devuelve la configuración del proveedor.
func (f *Flow) Endpoint() Endpoint { return f.endpoint }

// AuthorizeURL es la URL del proveedor a la que se manda al user agent.
func (f *Flow) AuthorizeURL() string {
	return appendQuery(f.endpoint.AuthURL, BuildQuery([]Param{
		{"client_id", f.creds.ID()},
		{"display", "page"},
		{"locale", "en"},
		{"redirect_uri", f.redirectURL},
		{"response_type", "code"},
		{"scope", f.endpoint.Scope},
	}))
}

// Initiate inicia (o retoma) la autorización. Con un access token guardado
// y un RefreshTokenURL configurado, primero le pide al proveedor que lo
// revalide; si eso autoriza la sesión no hay redirect. Si no, se invoca el
// Redirector exactamente una vez con AuthorizeURL.
//
// Solo retorna error ante fallas de transporte; los errores del proveedor y
// de parseo quedan registrados en la sesión.
func (f *Flow) Initiate(ctx context.Context) error {
	log := f.log.With(logger.Op("Flow.Initiate"))

	if strings.TrimSpace(f.session.AccessToken) != "" && strings.TrimSpace(f.endpoint.RefreshTokenURL) != "" {
		log.Debug("revalidando token guardado", logger.Token(util.MaskToken(f.session.AccessToken)))
		result, err := f.refreshShortcut(ctx)
		if err != nil {
			f.record("refresh", metrics.ResultNetworkError)
			log.Warn("falló el request de refresh", logger.Err(err))
			return err
		}
		f.record("refresh", result)
		if result == metrics.ResultAuthorized {
			log.Info("token guardado revalidado")
			return nil
		}
	}

	if f.redirector == nil {
		return ErrNoRedirector
	}

	next := f.session
	next.State = StatePendingCallback
	f.session = next

	f.redirector.Redirect(f.AuthorizeURL())
	f.record("initiate", metrics.ResultRedirect)
	log.Debug("redirect al proveedor")
	return nil
}

// HandleCallback consume el query del redirect de vuelta desde el proveedor.
// Un code no vacío se canjea por un token; si no, un error no vacío se
// registra tal cual. Cualquier otra cosa se ignora.
func (f *Flow) HandleCallback(ctx context.Context, q Params) error {
	log := f.log.With(logger.Op("Flow.HandleCallback"))
	if q == nil {
		f.record("callback", metrics.ResultNoop)
		return nil
	}

	if code := strings.TrimSpace(q.Get("code")); code != "" {
		if err := f.exchangeCode(ctx, code); err != nil {
			f.record("callback", metrics.ResultNetworkError)
			log.Warn("falló el canje del code", logger.Err(err))
			return err
		}
		f.record("callback", f.outcome())
		log.Debug("code canjeado", logger.State(string(f.session.State)))
		return nil
	}

	if strings.TrimSpace(q.Get("error")) != "" {
		perr := &ProviderError{
			Code:        q.Get("error"),
			Reason:      q.Get("error_reason"),
			Description: q.Get("error_description"),
		}
		next := f.session.withFailure(perr)
		next.Authorized = false
		next.State = StateFailed
		f.session = next
		f.record("callback", metrics.ResultProviderError)
		log.Info("el proveedor devolvió un error", logger.String("error", perr.Code), logger.String("error_reason", perr.Reason))
		return nil
	}

	f.record("callback", metrics.ResultNoop)
	return nil
}

// refreshShortcut revalida el token guardado contra RefreshTokenURL. Un code
// en la respuesta se canjea igual que el code de un callback (semántica
// client_code de Facebook). Los proveedores sin ese endpoint dejan
// RefreshTokenURL vacío y este paso no corre.
//
// Devuelve un único resultado de métrica por llamada.
func (f *Flow) refreshShortcut(ctx context.Context) (string, error) {
	url := appendQuery(f.endpoint.RefreshTokenURL, BuildQuery([]Param{
		{"access_token", f.session.AccessToken},
		{"client_id", f.creds.ID()},
		{"client_secret", f.creds.Secret()},
		{"redirect_uri", f.redirectURL},
	}))
	body, err := f.fetch(ctx, "refresh", url)
	if err != nil {
		return "", err
	}

	tr, err := ParseTokenResponse(body)
	if err != nil {
		next := f.session.withFailure(err)
		next.AccessToken, next.AccessTokenExpiration, next.Authorized = "", time.Time{}, false
		next.State = StateFailed
		f.session = next
		return metrics.ResultParseError, nil
	}
	if strings.TrimSpace(tr.Code) == "" {
		return metrics.ResultUnauthorized, nil
	}
	if err := f.exchangeCode(ctx, strings.TrimSpace(tr.Code)); err != nil {
		return "", err
	}
	if f.session.Authorized {
		return metrics.ResultAuthorized, nil
	}
	return metrics.ResultUnauthorized, nil
}

// exchangeCode canjea un authorization code por un token y después trae el
// perfil. Una falla del perfil nunca revierte un token aceptado.
func (f *Flow) exchangeCode(ctx context.Context, code string) error {
	url := appendQuery(f.endpoint.AccessTokenURL, BuildQuery([]Param{
		{"client_id", f.creds.ID()},
		{"redirect_uri", f.redirectURL},
		{"client_secret", f.creds.Secret()},
		{"code", code},
	}))
	body, err := f.fetch(ctx, "token", url)
	if err != nil {
		return err
	}

	next, ok := f.applyTokenResponse(body)
	f.session = next
	if !ok {
		f.record("exchange", metrics.ResultParseError)
		return nil
	}
	if strings.TrimSpace(next.AccessToken) == "" && !next.Authorized {
		f.record("exchange", metrics.ResultUnauthorized)
		return nil
	}
	f.record("exchange", f.outcome())

	body, err = f.fetch(ctx, "userinfo", appendQuery(f.endpoint.UserInfoURL, BuildQuery([]Param{
		{"access_token", next.AccessToken},
	})))
	if err != nil {
		return err
	}
	f.session = f.applyUserInfo(body)
	return nil
}

// applyTokenResponse arma la sesión que resulta de un cuerpo de token. Los
// campos del token se reemplazan enteros; un error de parseo los deja vacíos.
func (f *Flow) applyTokenResponse(body string) (Session, bool) {
	next := f.session
	next.AccessToken, next.TokenType = "", ""
	next.AccessTokenExpiration, next.Authorized = time.Time{}, false
	next.UserInfo, next.UserInfoRaw = nil, ""

	tr, err := ParseTokenResponse(body)
	if err != nil {
		next = next.withFailure(err)
		next.State = StateFailed
		f.log.Warn("respuesta de token rechazada", logger.Err(err))
		return next, false
	}

	now := f.now()
	next.AccessToken = tr.AccessToken
	next.TokenType = tr.TokenType
	next.AccessTokenExpiration = tr.ExpiresAt(now)
	next.Authorized = strings.TrimSpace(next.AccessToken) != "" && next.AccessTokenExpiration.After(now)

	if next.Authorized {
		next = next.withoutFailure()
		next.State = StateAuthorized
	} else {
		next.State = StateUnauthenticated
	}
	return next, true
}

func (f *Flow) applyUserInfo(body string) Session {
	next := f.session
	next.UserInfoRaw = body

	info, err := ParseUserInfo(body)
	if err != nil {
		next.UserInfo = nil
		f.record("userinfo", metrics.ResultParseError)
		f.log.Warn("user info rechazado", logger.Err(err))
		return next.withFailure(err)
	}
	next.UserInfo = info
	f.record("userinfo", metrics.ResultAuthorized)
	return next
}

func (f *Flow) fetch(ctx context.Context, endpoint, url string) (string, error) {
	start := time.Now()
	body, err := f.fetcher.Fetch(ctx, url)
	metrics.FetchDuration.WithLabelValues(f.endpoint.Provider, endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("oauth: request %s: %w", endpoint, err)
	}
	return body, nil
}

func (f *Flow) outcome() string {
	switch {
	case f.session.Authorized:
		return metrics.ResultAuthorized
	case f.session.Err != nil:
		return metrics.ResultParseError
	default:
		return metrics.ResultUnauthorized
	}
}

func (f *Flow) record(op, result string) {
	metrics.FlowOperations.WithLabelValues(f.endpoint.Provider, op, result).Inc()
}

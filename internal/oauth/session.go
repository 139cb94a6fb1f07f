package oauth

import "time"

// State es la posición de un Flow en la máquina de estados de autorización.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StatePendingCallback State = "pending_callback"
	StateAuthorized      State = "authorized"
	StateFailed          State = "failed"
)

// Session es un snapshot de solo lectura de un Flow. El flujo nunca muta una
// Session en el lugar: cada punto de cierre arma un valor nuevo y lo reemplaza.
type Session struct {
	AccessToken           string    `json:"access_token,omitempty"`
	TokenType             string    `json:"token_type,omitempty"`
	AccessTokenExpiration time.Time `json:"access_token_expiration"`
	// Authorized se calcula al procesar una respuesta de token: el token no
	// está vacío y vence estrictamente después de ese momento.
	Authorized bool `json:"authorized"`

	UserInfo    *UserInfo `json:"user_info,omitempty"`
	UserInfoRaw string    `json:"user_info_raw,omitempty"`

	Error            string `json:"error,omitempty"`
	ErrorReason      string `json:"error_reason,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`

	State State `json:"state"`

	// Err es la causa tipada detrás de Error (*ResponseParseError o
	// *ProviderError).
	Err error `json:"-"`
}

// withFailure devuelve s con los campos de error reemplazados por err.
func (s Session) withFailure(err error) Session {
	s.Err = err
	switch e := err.(type) {
	case *ProviderError:
		s.Error, s.ErrorReason, s.ErrorDescription = e.Code, e.Reason, e.Description
	case *ResponseParseError:
		s.Error, s.ErrorReason, s.ErrorDescription = MsgUnableToParseJSON, "", e.Err.Error()
	default:
		s.Error, s.ErrorReason, s.ErrorDescription = err.Error(), "", ""
	}
	return s
}

func (s Session) withoutFailure() Session {
	s.Err = nil
	s.Error, s.ErrorReason, s.ErrorDescription = "", "", ""
	return s
}

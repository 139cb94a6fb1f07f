package oauth

import (
	"errors"
	"fmt"
	"net/url"
)

// MsgUnableToParseJSON es el valor de Session.Error cuando no se pudo
// decodificar el cuerpo del token o del user-info.
const MsgUnableToParseJSON = "Unable to parse JSON response."

// ErrNoRedirector lo retorna Initiate cuando hay que redirigir y el Flow se
// construyó sin Redirector.
var ErrNoRedirector = errors.New("oauth: no hay redirector configurado")

// CredentialValidationError: credenciales de cliente faltantes. Es el único
// error fatal del paquete.
type CredentialValidationError struct {
	Field string // "id" | "secret"
}

func (e *CredentialValidationError) Error() string {
	return fmt.Sprintf("oauth: client %s requerido", e.Field)
}

// ResponseParseError: un cuerpo que no se pudo decodificar.
// Source es "token" o "userinfo".
type ResponseParseError struct {
	Source string
	Err    error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("oauth: respuesta %s inválida: %v", e.Source, e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// ProviderError lleva tal cual los parámetros de error que el proveedor
// devolvió en el redirect URI.
type ProviderError struct {
	Code        string
	Reason      string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: error del proveedor %s: %s", e.Code, e.Description)
	}
	return "oauth: error del proveedor " + e.Code
}

// NetworkError lo produce HTTPFetcher. El flujo nunca lo guarda en la
// sesión: vuelve al caller, que decide si reintenta.
//
// URL no incluye el query string: ahí viajan client_secret, code y
// access_token.
type NetworkError struct {
	URL        string
	StatusCode int // 0 si no hubo respuesta
	Err        error
}

func (e *NetworkError) Error() string {
	u := redactURL(e.URL)
	if e.StatusCode != 0 {
		return fmt.Sprintf("oauth: GET %s: status %d", u, e.StatusCode)
	}
	return fmt.Sprintf("oauth: GET %s: %v", u, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// redactURL deja scheme, host y path.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<url inválida>"
	}
	u.RawQuery, u.Fragment, u.User = "", "", nil
	return u.String()
}

package oauth

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenResponse es el cuerpo normalizado del token endpoint (o del de
// refresh). El flujo lo consume una sola vez.
type TokenResponse struct {
	Code        string `json:"code,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
}

// ExpiresAt convierte ExpiresIn en un instante absoluto. Ausente o <= 0
// devuelve el tiempo cero.
func (t TokenResponse) ExpiresAt(now time.Time) time.Time {
	if t.ExpiresIn == nil || *t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(*t.ExpiresIn) * time.Second)
}

// ParseTokenResponse acepta las dos formas que usan los proveedores: un
// objeto JSON o un string "k=v&k=v".
//
// Todo cuerpo (sin espacios) que empiece con '{' se trata como JSON y es
// estricto: JSON mal formado, truncado o con expires_in no numérico falla
// con *ResponseParseError. La forma url-encoded es permisiva: se saltean
// segmentos sin '=' y claves desconocidas, y un vencimiento inválido queda
// sin setear.
func ParseTokenResponse(body string) (TokenResponse, error) {
	body = strings.TrimSpace(body)
	if looksLikeJSON(body) {
		return parseTokenJSON(body)
	}
	return parseTokenForm(body), nil
}

// looksLikeJSON: un valor form nunca empieza con '{', así que un objeto
// truncado cae en JSON y falla en vez de pasar como form vacío.
func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{")
}

func parseTokenJSON(body string) (TokenResponse, error) {
	var tr TokenResponse
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		return TokenResponse{}, &ResponseParseError{Source: "token", Err: err}
	}
	return tr, nil
}

func parseTokenForm(body string) TokenResponse {
	var tr TokenResponse
	for _, seg := range strings.Split(body, "&") {
		key, val, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		val = formValue(val)
		switch key {
		case "access_token":
			tr.AccessToken = val
		case "expires", "expires_in":
			if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
				tr.ExpiresIn = &n
			}
		case "token_type":
			tr.TokenType = val
		}
	}
	return tr
}

// formValue decodifica un valor url-encoded; con un escape inválido
// devuelve el texto crudo.
func formValue(v string) string {
	if d, err := url.QueryUnescape(v); err == nil {
		return d
	}
	return v
}

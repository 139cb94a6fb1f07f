package http

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// errNoSession se retorna cuando el request no trae cookie de sesión válido.
var errNoSession = errors.New("no session cookie")

// CookieCodec emite y lee el cookie de sesión del navegador: un JWT HS256
// cuyo sub es el session id. Así un cliente no puede elegir el id de otra
// sesión.
type CookieCodec struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCookieCodec crea el codec. Con secret vacío se genera uno aleatorio,
// lo que invalida las sesiones en cada reinicio (solo para dev).
func NewCookieCodec(name, secret string, ttl time.Duration, secure bool) (*CookieCodec, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("cookie secret: %w", err)
		}
	}
	return &CookieCodec{name: name, secret: key, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Issue firma sid y lo setea en w.
func (c *CookieCodec) Issue(w http.ResponseWriter, sid string) error {
	now := c.now()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(c.ttl)),
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read devuelve el session id del cookie, o errNoSession.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	ck, err := r.Cookie(c.name)
	if err != nil || ck.Value == "" {
		return "", errNoSession
	}
	var claims jwtv5.RegisteredClaims
	_, err = jwtv5.ParseWithClaims(ck.Value, &claims, func(*jwtv5.Token) (any, error) {
		return c.secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}), jwtv5.WithTimeFunc(c.now))
	if err != nil || claims.Subject == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

// Clear borra el cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

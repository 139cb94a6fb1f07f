package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetcher hace un GET y devuelve el cuerpo. El flujo solo emite GETs con
// todos los parámetros en el query string.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchFunc adapta una función a Fetcher.
type FetchFunc func(ctx context.Context, url string) (string, error)

func (f FetchFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

// Redirector manda al user agent a la página de autorización del proveedor.
type Redirector interface {
	Redirect(url string)
}

// RedirectFunc adapta una función a Redirector.
type RedirectFunc func(url string)

func (f RedirectFunc) Redirect(url string) { f(url) }

// Params es el lookup del query del callback. url.Values lo cumple.
type Params interface {
	Get(key string) string
}

const maxBodyBytes = 1 << 20

// HTTPFetcher es el Fetcher por defecto, sobre net/http.
type HTTPFetcher struct {
	http *http.Client
}

// NewHTTPFetcher usa c, o un cliente con timeout de 10s si c es nil.
func NewHTTPFetcher(c *http.Client) *HTTPFetcher {
	if c == nil {
		c = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{http: c}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	safe := redactURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &NetworkError{URL: safe, Err: errors.New("request inválido")}
	}
	req.Header.Set("Accept", "application/json, application/x-www-form-urlencoded;q=0.9, */*;q=0.1")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", &NetworkError{URL: safe, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &NetworkError{URL: safe, StatusCode: resp.StatusCode, Err: fmt.Errorf("lectura del cuerpo: %w", err)}
	}
	if resp.StatusCode/100 != 2 {
		return "", &NetworkError{URL: safe, StatusCode: resp.StatusCode, Err: fmt.Errorf("status inesperado %d", resp.StatusCode)}
	}
	return string(b), nil
}

// stripURL saca el *url.Error que arma net/http, cuyo mensaje repite la URL
// completa con el query.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

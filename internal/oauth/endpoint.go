package oauth

import (
	"sort"
	"strings"
)

// Endpoint describe un proveedor. Scope es opcional y RefreshTokenURL vacío
// desactiva la revalidación de tokens guardados.
type Endpoint struct {
	Provider        string `yaml:"name" json:"provider"`
	AuthURL         string `yaml:"auth_url" json:"auth_url"`
	AccessTokenURL  string `yaml:"access_token_url" json:"access_token_url"`
	RefreshTokenURL string `yaml:"refresh_token_url" json:"refresh_token_url"`
	UserInfoURL     string `yaml:"user_info_url" json:"user_info_url"`
	Scope           string `yaml:"scope" json:"scope,omitempty"`
}

// Proveedores conocidos.
var (
	Facebook = Endpoint{
		Provider:        "Facebook",
		AuthURL:         "https://graph.facebook.com/oauth/authorize",
		AccessTokenURL:  "https://graph.facebook.com/oauth/access_token",
		RefreshTokenURL: "https://graph.facebook.com/oauth/client_code",
		UserInfoURL:     "https://graph.facebook.com/me",
	}

	// GitHub y Google no tienen un endpoint equivalente a client_code: un
	// token guardado no se revalida y se va directo al authorize.
	GitHub = Endpoint{
		Provider:       "GitHub",
		AuthURL:        "https://github.com/login/oauth/authorize",
		AccessTokenURL: "https://github.com/login/oauth/access_token",
		UserInfoURL:    "https://api.github.com/user",
		Scope:          "read:user",
	}

	Google = Endpoint{
		Provider:       "Google",
		AuthURL:        "https://accounts.google.com/o/oauth2/v2/auth",
		AccessTokenURL: "https://oauth2.googleapis.com/token",
		UserInfoURL:    "https://www.googleapis.com/oauth2/v2/userinfo",
		Scope:          "email+profile", // ya codificado: BuildQuery no escapa
	}
)

var presets = map[string]Endpoint{
	"facebook": Facebook,
	"github":   GitHub,
	"google":   Google,
}

// Preset devuelve el endpoint registrado bajo name (sin distinguir mayúsculas).
func Preset(name string) (Endpoint, bool) {
	e, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// PresetNames devuelve los nombres registrados, ordenados.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

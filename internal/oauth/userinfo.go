package oauth

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UserInfo es el perfil que devuelve el endpoint de user info del proveedor.
// Todos los campos son opcionales; cada proveedor devuelve cosas distintas.
type UserInfo struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"name,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Username  string `json:"username,omitempty"`
}

// wireUserInfo acepta las variantes de claves de Facebook, GitHub y Google.
type wireUserInfo struct {
	ID                flexString `json:"id"`
	Sub               flexString `json:"sub"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	GivenName         string     `json:"given_name"`
	LastName          string     `json:"last_name"`
	FamilyName        string     `json:"family_name"`
	Name              string     `json:"name"`
	Gender            string     `json:"gender"`
	Locale            string     `json:"locale"`
	Timezone          flexString `json:"timezone"`
	ZoneInfo          string     `json:"zoneinfo"`
	Username          string     `json:"username"`
	Login             string     `json:"login"`
	PreferredUsername string     `json:"preferred_username"`
}

// ParseUserInfo decodifica un cuerpo de user info.
func ParseUserInfo(body string) (*UserInfo, error) {
	var w wireUserInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &w); err != nil {
		return nil, &ResponseParseError{Source: "userinfo", Err: err}
	}
	return &UserInfo{
		ID:        firstNonEmpty(string(w.ID), string(w.Sub)),
		Email:     w.Email,
		FirstName: firstNonEmpty(w.FirstName, w.GivenName),
		LastName:  firstNonEmpty(w.LastName, w.FamilyName),
		FullName:  w.Name,
		Gender:    w.Gender,
		Locale:    w.Locale,
		Timezone:  firstNonEmpty(string(w.Timezone), w.ZoneInfo),
		Username:  firstNonEmpty(w.Username, w.Login, w.PreferredUsername),
	}, nil
}

// flexString acepta un string o un número JSON (los ids de GitHub y los
// timezones de Facebook son números).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

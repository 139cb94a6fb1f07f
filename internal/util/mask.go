package util

import "strings"

// MaskToken deja los primeros y últimos cuatro caracteres de una credencial.
// Los valores cortos se enmascaran enteros.
func MaskToken(s string) string {
	r := []rune(strings.TrimSpace(s))
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 12:
		return "***"
	default:
		return string(r[:4]) + "…" + string(r[len(r)-4:])
	}
}

// MaskEmail reduce una dirección a sus primeras letras, ej. "j…@e….com".
// Corta por rune, nunca a mitad de un carácter multibyte.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		r := []rune(s)
		switch {
		case len(r) == 0:
			return ""
		case len(r) <= 3:
			return "***"
		}
		return string(r[:1]) + "…" + string(r[len(r)-1:])
	}
	user, dom := s[:i], s[i+1:]
	user = keepFirst(user)
	dparts := strings.Split(dom, ".")
	dparts[0] = keepFirst(dparts[0])
	return user + "@" + strings.Join(dparts, ".")
}

func keepFirst(s string) string {
	r := []rune(s)
	if len(r) <= 1 {
		return s
	}
	return string(r[:1]) + "…"
}

// Package validation contiene chequeos de valores que terminan en URLs hacia
// el proveedor sin escapar.
package validation

import (
	"regexp"
	"strings"
)

// Un nombre de scope:
// - Empieza y termina con [a-zA-Z0-9].
// - En el medio admite [a-zA-Z0-9:_./-] (Google usa URLs como scope).
// - Largo 1..256.
// - Nunca '&', '=', '#', '?' ni espacios: romperían el query string.
var scopeNameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9:_\./-]{0,254}[a-zA-Z0-9])?$`)

// ValidScopeName reports whether name is safe to place in a query string as-is.
func ValidScopeName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// scopeSeparators: '+' (espacio ya codificado), ',' (Facebook) y "%20".
var scopeSplitter = strings.NewReplacer("%20", "\x00", "+", "\x00", ",", "\x00")

// InvalidScope devuelve el primer nombre inválido de una lista de scopes
// ya codificada, o "" si todos son válidos. Una lista vacía es válida.
func InvalidScope(list string) string {
	if strings.TrimSpace(list) == "" {
		return ""
	}
	for _, name := range strings.Split(scopeSplitter.Replace(list), "\x00") {
		if !ValidScopeName(name) {
			if name == "" {
				return list
			}
			return name
		}
	}
	return ""
}

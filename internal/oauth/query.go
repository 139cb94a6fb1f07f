package oauth

import "strings"

// Param es un parámetro de query. El orden importa, por eso se guardan en un
// slice y no en url.Values.
type Param struct {
	Key   string
	Value string
}

// BuildQuery une los params como pares key=value separados por '&'. Se
// descartan los params con valor vacío o solo espacios. Los valores NO se
// codifican: quien llama pasa valores ya seguros.
func BuildQuery(params []Param) string {
	var b strings.Builder
	for _, p := range params {
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

func appendQuery(base, qs string) string {
	if qs == "" {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + qs
	}
	return base + "?" + qs
}

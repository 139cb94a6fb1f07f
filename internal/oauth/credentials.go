package oauth

import "strings"

// ClientCredentials son el id y el secret emitidos por el proveedor.
// El zero value no sirve; se arman con NewClientCredentials.
type ClientCredentials struct {
	id     string
	secret string
}

// NewClientCredentials valida y devuelve las credenciales. Valores vacíos o
// solo con espacios fallan con *CredentialValidationError.
func NewClientCredentials(id, secret string) (ClientCredentials, error) {
	if strings.TrimSpace(id) == "" {
		return ClientCredentials{}, &CredentialValidationError{Field: "id"}
	}
	if strings.TrimSpace(secret) == "" {
		return ClientCredentials{}, &CredentialValidationError{Field: "secret"}
	}
	return ClientCredentials{id: id, secret: secret}, nil
}

func (c ClientCredentials) ID() string     { return c.id }
func (c ClientCredentials) Secret() string { return c.secret }

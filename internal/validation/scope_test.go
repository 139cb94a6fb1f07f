package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidScopeName(t *testing.T) {
	valids := []string{
		"a",
		"email",
		"read:user",
		"public_profile",
		"https://www.googleapis.com/auth/userinfo.email",
		"a" + strings.Repeat("b", 254) + "c",
	}
	for _, v := range valids {
		assert.True(t, ValidScopeName(v), "expected valid: %q", v)
	}

	invalids := []string{
		"",
		":lead",
		"trail:",
		"bad space",
		"email&client_id=evil",
		"a=b",
		"frag#x",
		"a" + strings.Repeat("b", 255) + "c",
	}
	for _, v := range invalids {
		assert.False(t, ValidScopeName(v), "expected invalid: %q", v)
	}
}

func TestInvalidScope(t *testing.T) {
	assert.Equal(t, "", InvalidScope(""))
	assert.Equal(t, "", InvalidScope("email+profile"))
	assert.Equal(t, "", InvalidScope("email,public_profile"))
	assert.Equal(t, "", InvalidScope("openid%20email"))
	assert.Equal(t, "", InvalidScope("read:user"))

	assert.Equal(t, "email profile", InvalidScope("email profile"))
	assert.Equal(t, "x&redirect_uri=evil", InvalidScope("email,x&redirect_uri=evil"))
	assert.Equal(t, "email++profile", InvalidScope("email++profile"), "empty name between separators")
}

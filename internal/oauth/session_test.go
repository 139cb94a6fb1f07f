package oauth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_JSONKeepsExpiration(t *testing.T) {
	in := Session{
		AccessToken:           "T",
		AccessTokenExpiration: fixedNow.Add(time.Hour),
		Authorized:            true,
		State:                 StateAuthorized,
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Session
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, in.AccessTokenExpiration.Equal(out.AccessTokenExpiration))

	// el zero value se serializa igual: time.Time no es "vacío" para encoding/json
	b, err = json.Marshal(Session{State: StateUnauthenticated})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"access_token_expiration":"0001-01-01T00:00:00Z"`)
}

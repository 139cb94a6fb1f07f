package session

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/oauthflow/internal/cache"
	"github.com/dropDatabas3/oauthflow/internal/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	st := NewStore(cache.NewMemory("test", 0), time.Hour)
	ctx := context.Background()

	_, ok, err := st.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	in := oauth.Session{
		AccessToken:           "T0K3N",
		TokenType:             "bearer",
		AccessTokenExpiration: exp,
		Authorized:            true,
		UserInfo:              &oauth.UserInfo{ID: "42", Email: "ana@example.com"},
		State:                 oauth.StateAuthorized,
	}
	require.NoError(t, st.Save(ctx, "sid", in))

	out, ok, err := st.Load(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T0K3N", out.AccessToken)
	assert.True(t, out.AccessTokenExpiration.Equal(exp))
	assert.Equal(t, "ana@example.com", out.UserInfo.Email)
	assert.Equal(t, oauth.StateAuthorized, out.State)

	require.NoError(t, st.Delete(ctx, "sid"))
	_, ok, err = st.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	st := NewStore(cache.NewMemory("", 0), 30*time.Minute)
	st.now = func() time.Time { return now }

	assert.Equal(t, 30*time.Minute, st.ttlFor(oauth.Session{}))
	assert.Equal(t, 2*time.Hour, st.ttlFor(oauth.Session{Authorized: true, AccessTokenExpiration: now.Add(2 * time.Hour)}))
	assert.Equal(t, 30*time.Minute, st.ttlFor(oauth.Session{Authorized: true, AccessTokenExpiration: now.Add(-time.Minute)}))
}

func TestStore_CorruptEntry(t *testing.T) {
	c := cache.NewMemory("", 0)
	require.NoError(t, c.Set(context.Background(), "session:bad", "{not json", 0))
	_, _, err := NewStore(c, time.Minute).Load(context.Background(), "bad")
	assert.Error(t, err)
}

package oauth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenResponse_JSONAndFormAreEquivalent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	fromJSON, err := ParseTokenResponse(`{"access_token":"T","expires_in":3600,"token_type":"bearer"}`)
	require.NoError(t, err)
	fromForm, err := ParseTokenResponse("access_token=T&expires_in=3600&token_type=bearer")
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromForm)
	assert.Equal(t, "T", fromJSON.AccessToken)
	assert.Equal(t, "bearer", fromJSON.TokenType)
	assert.Equal(t, now.Add(time.Hour), fromJSON.ExpiresAt(now))
}

func TestParseTokenResponse_JSON(t *testing.T) {
	tr, err := ParseTokenResponse("  \n{\"code\":\"C1\"}\n")
	require.NoError(t, err)
	assert.Equal(t, "C1", tr.Code)
	assert.Empty(t, tr.AccessToken)
	assert.Nil(t, tr.ExpiresIn)
	assert.True(t, tr.ExpiresAt(time.Now()).IsZero())
}

func TestParseTokenResponse_JSONErrors(t *testing.T) {
	bodies := map[string]string{
		"invalid value":       `{"access_token":}`,
		"truncated":           `{"access_token":`,
		"unterminated":        `{"access_token":"T"`,
		"non numeric expires": `{"access_token":"T","expires_in":"soon"}`,
		"fractional expires":  `{"access_token":"T","expires_in":1.5}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTokenResponse(body)
			var pe *ResponseParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "token", pe.Source)
		})
	}
}

func TestParseTokenResponse_Form(t *testing.T) {
	tr, err := ParseTokenResponse("access_token=a%2Bb&expires=5183999&junk&foo=bar&token_type=")
	require.NoError(t, err)
	assert.Equal(t, "a+b", tr.AccessToken)
	require.NotNil(t, tr.ExpiresIn)
	assert.EqualValues(t, 5183999, *tr.ExpiresIn)
	assert.Empty(t, tr.TokenType)
}

func TestParseTokenResponse_FormLenientExpiry(t *testing.T) {
	tr, err := ParseTokenResponse("access_token=T&expires_in=never")
	require.NoError(t, err)
	assert.Equal(t, "T", tr.AccessToken)
	assert.Nil(t, tr.ExpiresIn)
}

func TestParseTokenResponse_FormInvalidEscapeKeptRaw(t *testing.T) {
	tr, err := ParseTokenResponse("access_token=abc%zz")
	require.NoError(t, err)
	assert.Equal(t, "abc%zz", tr.AccessToken)
}

func TestExpiresAt_NonPositive(t *testing.T) {
	zero, neg := int64(0), int64(-10)
	now := time.Now()
	assert.True(t, TokenResponse{ExpiresIn: &zero}.ExpiresAt(now).IsZero())
	assert.True(t, TokenResponse{ExpiresIn: &neg}.ExpiresAt(now).IsZero())
}

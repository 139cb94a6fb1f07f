package oauth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserInfo_Facebook(t *testing.T) {
	ui, err := ParseUserInfo(`{"id":"1001","email":"ana@example.com","first_name":"Ana","last_name":"Diaz",
		"name":"Ana Diaz","gender":"female","locale":"es_AR","timezone":-3,"username":"anadiaz"}`)
	require.NoError(t, err)
	assert.Equal(t, &UserInfo{
		ID: "1001", Email: "ana@example.com", FirstName: "Ana", LastName: "Diaz", FullName: "Ana Diaz",
		Gender: "female", Locale: "es_AR", Timezone: "-3", Username: "anadiaz",
	}, ui)
}

func TestParseUserInfo_GitHub(t *testing.T) {
	ui, err := ParseUserInfo(`{"id":583231,"login":"octocat","name":"The Octocat","email":null}`)
	require.NoError(t, err)
	assert.Equal(t, "583231", ui.ID)
	assert.Equal(t, "octocat", ui.Username)
	assert.Equal(t, "The Octocat", ui.FullName)
	assert.Empty(t, ui.Email)
}

func TestParseUserInfo_Google(t *testing.T) {
	ui, err := ParseUserInfo(`{"sub":"g-1","given_name":"Juan","family_name":"Perez","zoneinfo":"America/Montevideo"}`)
	require.NoError(t, err)
	assert.Equal(t, "g-1", ui.ID)
	assert.Equal(t, "Juan", ui.FirstName)
	assert.Equal(t, "Perez", ui.LastName)
	assert.Equal(t, "America/Montevideo", ui.Timezone)
}

func TestParseUserInfo_Malformed(t *testing.T) {
	for _, body := range []string{`{"id":`, `<html>`, `{"id":true}`} {
		_, err := ParseUserInfo(body)
		var pe *ResponseParseError
		require.True(t, errors.As(err, &pe), "body %q: got %v", body, err)
		assert.Equal(t, "userinfo", pe.Source)
	}
}

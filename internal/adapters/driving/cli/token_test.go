package cli

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/connect/internal/adapters/driven/config/file"
)

func TestTokenCmd(t *testing.T) {
	oldConfig := appConfig
	appConfig = &file.Config{}
	appConfig.Server.JWTSecret = "test-secret"
	t.Cleanup(func() { appConfig = oldConfig })

	out, err := runCommand(t, &mockConnections{}, "token", "--user", "broker-7")
	require.NoError(t, err)

	signed := strings.TrimSpace(out)
	token, err := jwt.Parse(signed, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	subject, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "broker-7", subject)
}

func TestTokenCmd_RequiresUser(t *testing.T) {
	_, err := runCommand(t, &mockConnections{}, "token")
	require.Error(t, err)
}

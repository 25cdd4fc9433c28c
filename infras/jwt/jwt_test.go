package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/config"
	"slotkeeper/infras/jwt"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	return token
}

func newService() jwt.JWT {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = secret

	return jwt.New(cfg)
}

func TestValidateToken(t *testing.T) {
	now := time.Now()
	valid := jwt.Claims{
		UserID: "staff-1",
		Role:   "staff",
		Type:   jwt.AccessToken,
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  gojwt.NewNumericDate(now),
		},
	}

	expired := valid
	expired.ExpiresAt = gojwt.NewNumericDate(now.Add(-time.Minute))

	wrongType := valid
	wrongType.Type = "refresh"

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid", token: sign(t, secret, valid)},
		{name: "expired", token: sign(t, secret, expired), wantErr: jwt.ErrExpiredToken},
		{name: "bad signature", token: sign(t, "other", valid), wantErr: jwt.ErrInvalidToken},
		{name: "refresh token rejected", token: sign(t, secret, wrongType), wantErr: jwt.ErrInvalidClaim},
		{name: "garbage", token: "not-a-jwt", wantErr: jwt.ErrInvalidToken},
	}

	svc := newService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "staff-1", claims.UserID)
			assert.Equal(t, "staff", claims.Role)
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := jwt.ExtractTokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = jwt.ExtractTokenFromHeader("")
	assert.ErrorIs(t, err, jwt.ErrMissingToken)

	_, err = jwt.ExtractTokenFromHeader("Basic abc")
	assert.Error(t, err)
}

package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/permissions"
	"slotkeeper/shared/constant"
)

func TestGet_EmbeddedRoutes(t *testing.T) {
	data, err := permissions.Get()
	require.NoError(t, err)

	health := data.FindPermissions("/v1/health", http.MethodGet)
	assert.True(t, health.Skip)

	lock := data.FindPermissions("/v1/slots/lock", http.MethodPost)
	assert.True(t, lock.Allows(constant.RoleClient))

	list := data.FindPermissions("/v1/appointments/", http.MethodGet)
	assert.False(t, list.Allows(constant.RoleClient))
	assert.True(t, list.Allows(constant.RoleStaff))

	missing := data.FindPermissions("/v1/unknown", http.MethodGet)
	assert.False(t, missing.Skip)
	assert.True(t, missing.Allows(constant.RoleClient))
}

func TestParse_Malformed(t *testing.T) {
	_, err := permissions.Parse([]byte("{"))
	assert.Error(t, err)
}

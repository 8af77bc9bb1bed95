package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskboard/internal/authz"
)

func TestIsAuthorized_Matrix(t *testing.T) {
	ordered := []authz.Role{
		authz.RoleViewer,
		authz.RoleCommenter,
		authz.RoleMember,
		authz.RoleEditor,
		authz.RoleAdmin,
	}

	for i, required := range ordered {
		for j, actual := range ordered {
			expected := j >= i
			assert.Equal(t, expected, authz.IsAuthorized(required, actual),
				"required=%s actual=%s", required, actual)
		}
	}
}

func TestIsAuthorized_UnknownRoles(t *testing.T) {
	assert.False(t, authz.IsAuthorized("OWNER", authz.RoleAdmin))
	assert.False(t, authz.IsAuthorized(authz.RoleViewer, "GUEST"))
	assert.False(t, authz.IsAuthorized("", authz.RoleAdmin))
	assert.False(t, authz.IsAuthorized(authz.RoleViewer, ""))
}

func TestParseRole(t *testing.T) {
	role, ok := authz.ParseRole("editor")
	assert.True(t, ok)
	assert.Equal(t, authz.RoleEditor, role)

	role, ok = authz.ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, authz.RoleAdmin, role)

	_, ok = authz.ParseRole("owner")
	assert.False(t, ok)

	_, ok = authz.ParseRole("")
	assert.False(t, ok)
}

func TestRank(t *testing.T) {
	assert.Equal(t, 0, authz.RoleViewer.Rank())
	assert.Equal(t, 4, authz.RoleAdmin.Rank())
	assert.Equal(t, -1, authz.Role("GUEST").Rank())
}

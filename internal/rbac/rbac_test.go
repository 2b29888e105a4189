package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/elearn/internal/rbac"
)

func TestChecker_DefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)

	assert.True(t, c.Has(rbac.RoleStudent, "practice:answer"))
	assert.True(t, c.Has(rbac.RoleStudent, "course:enroll"))
	assert.False(t, c.Has(rbac.RoleStudent, "course:author"))
	assert.True(t, c.Has(rbac.RoleTeacher, "course:author"))
	assert.False(t, c.Has(rbac.RoleTeacher, "users:role"))
	assert.True(t, c.Has(rbac.RoleAdmin, "users:role"))
	assert.False(t, c.Has("guest", "course:view"))

	assert.True(t, rbac.ValidRole("teacher"))
	assert.False(t, rbac.ValidRole("root"))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := rbac.Require("course:author")(ok)

	cases := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{rbac.RoleStudent, http.StatusForbidden},
		{rbac.RoleTeacher, http.StatusNoContent},
		{rbac.RoleAdmin, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.role != "" {
			req = req.WithContext(rbac.WithRole(req.Context(), tc.role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
	}
}

package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/elearn/internal/rbac"
)

type tokenResp struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteUserError maps user store errors to a status and detail body.
func WriteUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBadCredentials):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrInvalidUser), errors.Is(err, ErrLastAdmin):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("auth: %v", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

// POST /auth/register/  {username, password, first_name, last_name, email}
// Self-registration always creates a student.
func RegisterHandler(a *AuthService, users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NewUser
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "bad json")
			return
		}
		req.ID = ""
		req.Role = rbac.RoleStudent
		u, err := users.Create(r.Context(), req)
		if err != nil {
			WriteUserError(w, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			WriteUserError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tokenResp{AccessToken: tok, User: u})
	}
}

// POST /auth/login/  {username, password}
func LoginHandler(a *AuthService, users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "bad json")
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			WriteUserError(w, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			WriteUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResp{AccessToken: tok, User: u})
	}
}

func MeHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Get(r.Context(), SubjectFromContext(r.Context()))
		if err != nil {
			WriteUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func UpdateMeHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p ProfilePatch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeDetail(w, http.StatusBadRequest, "bad json")
			return
		}
		u, err := users.UpdateProfile(r.Context(), SubjectFromContext(r.Context()), p)
		if err != nil {
			WriteUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// POST /auth/change-password/  {old_password, new_password}
func ChangePasswordHandler(users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "bad json")
			return
		}
		err := users.ChangePassword(r.Context(), SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		if errors.Is(err, ErrBadCredentials) {
			writeDetail(w, http.StatusForbidden, "incorrect old password")
			return
		}
		if err != nil {
			WriteUserError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

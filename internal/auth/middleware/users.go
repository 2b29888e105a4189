package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/elearn/internal/rbac"
)

// BcryptCost is the work factor for new password hashes.
var BcryptCost = 12

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrInvalidUser    = errors.New("invalid user data")
	ErrLastAdmin      = errors.New("cannot demote the last admin")
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type NewUser struct {
	ID        string `json:"id,omitempty"` // generated when empty
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

const userCols = `id, username, role, first_name, last_name, email`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Role, &u.FirstName, &u.LastName, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	return string(b), err
}

func (n *NewUser) normalize() error {
	n.Username = strings.TrimSpace(n.Username)
	n.Role = strings.ToLower(strings.TrimSpace(n.Role))
	if n.Role == "" {
		n.Role = rbac.RoleStudent
	}
	if n.Username == "" || len(n.Username) > 150 {
		return fmt.Errorf("%w: username must be 1-150 characters", ErrInvalidUser)
	}
	if !rbac.ValidRole(n.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidUser, n.Role)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Create inserts a user with a bcrypt hash of the password.
func (s *UserStore) Create(ctx context.Context, in NewUser) (User, error) {
	if err := in.normalize(); err != nil {
		return User{}, err
	}
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidUser)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username=$1`, in.Username).Scan(&n); err != nil {
		return User{}, err
	}
	if n > 0 {
		return User{}, ErrUsernameTaken
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, first_name, last_name, email, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		in.ID, in.Username, hash, in.Role, in.FirstName, in.LastName, in.Email, time.Now().Unix()); err != nil {
		return User{}, err
	}
	return s.Get(ctx, in.ID)
}

// Get looks a user up by id or username.
func (s *UserStore) Get(ctx context.Context, idOrUsername string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id=$1 OR username=$1`, idOrUsername))
}

func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username=$1`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return s.Get(ctx, username)
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, p ProfilePatch) (User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_name=COALESCE($1, first_name), last_name=COALESCE($2, last_name),
		        email=COALESCE($3, email)
		  WHERE id=$4`, p.FirstName, p.LastName, p.Email, id)
	if err != nil {
		return User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrUserNotFound
	}
	return s.Get(ctx, id)
}

func (s *UserStore) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidUser)
	}
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
	return err
}

// SetRole changes target's role (id or username). The last admin cannot be demoted.
func (s *UserStore) SetRole(ctx context.Context, target, role string) (User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !rbac.ValidRole(role) {
		return User{}, fmt.Errorf("%w: invalid role %q", ErrInvalidUser, role)
	}
	u, err := s.Get(ctx, target)
	if err != nil {
		return User{}, err
	}
	if u.Role == rbac.RoleAdmin && role != rbac.RoleAdmin {
		var admins int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM users WHERE role=$1`, rbac.RoleAdmin).Scan(&admins); err != nil {
			return User{}, err
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, u.ID); err != nil {
		return User{}, err
	}
	u.Role = role
	return u, nil
}

func (s *UserStore) List(ctx context.Context, role string) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY username`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE role=$1 ORDER BY username`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// BulkUpsert creates or updates users by id or username in one transaction.
// New users need a password; existing ones keep theirs when none is given.
func (s *UserStore) BulkUpsert(ctx context.Context, rows []NewUser) (inserted, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		lookup := r.ID
		if err = r.normalize(); err != nil {
			return inserted, updated, err
		}
		var phash string
		if r.Password != "" {
			if phash, err = hashPassword(r.Password); err != nil {
				return inserted, updated, err
			}
		}

		var existingID string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id=$1 OR username=$2`, lookup, r.Username).Scan(&existingID)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET username=$1, role=$2, first_name=$3, last_name=$4, email=$5,
				        password_hash=CASE WHEN $6 = '' THEN password_hash ELSE $6 END
				  WHERE id=$7`,
				r.Username, r.Role, r.FirstName, r.LastName, r.Email, phash, existingID)
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, fmt.Errorf("%w: password required for new user %s", ErrInvalidUser, r.Username)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, first_name, last_name, email, created_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				r.ID, r.Username, phash, r.Role, r.FirstName, r.LastName, r.Email, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return inserted, updated, nil
}

package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	authmw "github.com/mind-engage/elearn/internal/auth/middleware"
)

// POST /admin/users/ accepts a JSON array body or a multipart file= (CSV or JSON).
func BulkUpsertUsersHandler(users *authmw.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []authmw.NewUser
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				detail(w, http.StatusBadRequest, "file required")
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by the first byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				detail(w, http.StatusBadRequest, "empty file")
				return
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				writeError(w, r, err)
				return
			}
			if buf[0] == '[' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					detail(w, http.StatusBadRequest, "bad json")
					return
				}
			} else if rows, err = parseCSV(f); err != nil {
				detail(w, http.StatusBadRequest, "bad csv: "+err.Error())
				return
			}
		} else if !decodeJSON(w, r, &rows) {
			return
		}
		if len(rows) == 0 {
			respondJSON(w, http.StatusOK, map[string]int{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := users.BulkUpsert(r.Context(), rows)
		if err != nil {
			authmw.WriteUserError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

// GET /admin/users/?role=
func ListUsersHandler(users *authmw.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("role")))
		if err != nil {
			authmw.WriteUserError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// parseCSV reads a header row (username required; id, password, role,
// first_name, last_name, email optional) followed by one user per row.
func parseCSV(r io.Reader) ([]authmw.NewUser, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []authmw.NewUser
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, authmw.NewUser{
			ID:        col(rec, "id"),
			Username:  col(rec, "username"),
			Password:  col(rec, "password"),
			Role:      strings.ToLower(col(rec, "role")),
			FirstName: col(rec, "first_name"),
			LastName:  col(rec, "last_name"),
			Email:     col(rec, "email"),
		})
	}
	return rows, nil
}

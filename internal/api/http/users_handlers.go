package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
)

type userRow struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`               // student | teacher | admin
	Password string `json:"password,omitempty"` // plaintext, hashed on write
}

// POST /users/bulk — accepts a JSON array body or a multipart CSV/JSON file.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if seeker, ok := f.(io.Seeker); ok {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseUserCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=student
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
			http.Error(w, "new_password required", http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), userID); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseUserCSV(r io.Reader) ([]userRow, error) {
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
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{Username: rec[idx["username"]]}
		if i, ok := idx["id"]; ok {
			row.ID = rec[i]
		}
		if i, ok := idx["role"]; ok {
			row.Role = strings.ToLower(rec[i])
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
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
	for _, row := range rows {
		if strings.TrimSpace(row.Username) == "" {
			return inserted, updated, errors.New("username required")
		}
		if row.Role == "" {
			row.Role = "student"
		}
		if row.Role != "student" && row.Role != "teacher" && row.Role != "admin" {
			return inserted, updated, errors.New("invalid role: " + row.Role)
		}
		var phash string
		if row.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(row.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var existingID string
		qerr := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 OR username=$2`, row.ID, row.Username).Scan(&existingID)
		switch {
		case qerr == nil:
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, password_hash=$3 WHERE id=$4`,
					row.Username, row.Role, phash, existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`,
					row.Username, row.Role, existingID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(qerr, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + row.Username)
			}
			id := row.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, role, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
				id, row.Username, row.Role, phash, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, qerr
		}
	}
	return inserted, updated, nil
}

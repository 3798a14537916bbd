// file: internals/helpers/cursor.go
package helper

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor: posisi keyset (created_at, id) plus window yang dipakai halaman
// pertama, supaya halaman berikutnya tidak ikut bergeser bersama jam.
// Wire format: base64url(JSON)
// {"createdAt":"<RFC3339Nano>","id":"<uuid>","from":"...","to":"..."}.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
	From      *time.Time
	To        *time.Time
}

type cursorWire struct {
	CreatedAt string `json:"createdAt"`
	ID        string `json:"id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func EncodeCursor(c Cursor) string {
	b, err := sonic.Marshal(cursorWire{
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        c.ID.String(),
		From:      formatOptional(c.From),
		To:        formatOptional(c.To),
	})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor menerima base64url dengan atau tanpa padding.
func DecodeCursor(s string) (Cursor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cursor{}, ErrInvalidCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var w cursorWire
	if err := sonic.Unmarshal(raw, &w); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	id, err := uuid.Parse(w.ID)
	if err != nil || id == uuid.Nil {
		return Cursor{}, ErrInvalidCursor
	}
	from, err := parseOptional(w.From)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	to, err := parseOptional(w.To)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{CreatedAt: ts.UTC(), ID: id, From: from, To: to}, nil
}

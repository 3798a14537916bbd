package helper

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTripKeepsMicroseconds(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	in := Cursor{
		CreatedAt: time.Date(2024, 4, 2, 10, 11, 12, 345678000, loc),
		ID:        uuid.MustParse("0190f5d2-9c1e-7a3b-8c4d-1234567890ab"),
	}

	out, err := DecodeCursor(EncodeCursor(in))
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, time.UTC, out.CreatedAt.Location())
	assert.Equal(t, in.ID, out.ID)
}

func TestCursor_CarriesWindow(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	in := Cursor{CreatedAt: from, ID: uuid.New(), From: &from, To: &to}

	out, err := DecodeCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out.From)
	require.NotNil(t, out.To)
	assert.True(t, from.Equal(*out.From))
	assert.True(t, to.Equal(*out.To))

	// cursor lama tanpa window tetap valid
	out, err = DecodeCursor(EncodeCursor(Cursor{CreatedAt: from, ID: in.ID}))
	require.NoError(t, err)
	assert.Nil(t, out.From)
	assert.Nil(t, out.To)
}

func TestCursor_AcceptsPaddedInput(t *testing.T) {
	raw := `{"createdAt":"2024-01-01T00:00:00Z","id":"0190f5d2-9c1e-7a3b-8c4d-1234567890ab"}`
	padded := base64.URLEncoding.EncodeToString([]byte(raw))

	c, err := DecodeCursor(padded)
	require.NoError(t, err)
	assert.Equal(t, 2024, c.CreatedAt.Year())
}

func TestCursor_RejectsMalformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := map[string]string{
		"empty":      "",
		"not base64": "%%%",
		"not json":   enc("hello"),
		"bad time":   enc(`{"createdAt":"yesterday","id":"0190f5d2-9c1e-7a3b-8c4d-1234567890ab"}`),
		"bad id":     enc(`{"createdAt":"2024-01-01T00:00:00Z","id":"nope"}`),
		"nil id":     enc(`{"createdAt":"2024-01-01T00:00:00Z","id":"00000000-0000-0000-0000-000000000000"}`),
		"bad from":   enc(`{"createdAt":"2024-01-01T00:00:00Z","id":"0190f5d2-9c1e-7a3b-8c4d-1234567890ab","from":"kemarin"}`),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(in)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

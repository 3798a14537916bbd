package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs, "every up migration has a down")
}

func TestInitMigration_HasIdempotencyIndex(t *testing.T) {
	b, err := migrationFS.ReadFile("migrations/000001_events_init.up.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.Contains(t, sql, "ux_rei_template_original_start")
	assert.Contains(t, sql, "num_nonnulls(event_attendee_event_id, event_attendee_instance_id) = 1")
	assert.Contains(t, sql, "event_attachment_trash")
}

func TestInitMigration_ParticipantsReferenceStandaloneEvents(t *testing.T) {
	b, err := migrationFS.ReadFile("migrations/000001_events_init.up.sql")
	require.NoError(t, err)
	sql := string(b)
	for _, col := range []string{"event_attendee_event_id", "volunteer_group_event_id", "event_volunteer_event_id"} {
		assert.Regexp(t, col+`\s+UUID REFERENCES standalone_events\(standalone_event_id\) ON DELETE CASCADE`, sql)
	}
}

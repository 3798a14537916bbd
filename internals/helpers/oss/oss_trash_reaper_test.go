package helper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komunitas_backend/internals/databases/testdb"
	"komunitas_backend/internals/features/events/events/model"
)

type fakeDeleter struct {
	mu      sync.Mutex
	calls   [][]string
	failFor map[string]int // url -> berapa kali lagi gagal (-1 = selalu)
}

func (f *fakeDeleter) DeleteManyByPublicURL(_ context.Context, urls []string) ([]string, map[string]error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), urls...))

	var deleted []string
	failed := map[string]error{}
	for _, u := range urls {
		switch n := f.failFor[u]; {
		case n < 0:
			failed[u] = errors.New("access denied")
		case n > 0:
			f.failFor[u] = n - 1
			failed[u] = errors.New("timeout")
		default:
			deleted = append(deleted, u)
		}
	}
	return deleted, failed
}

var reaperNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newReaper(t *testing.T, del Deleter) (*TrashReaper, func() []model.AttachmentTrashModel) {
	db := testdb.Open(t, &model.AttachmentTrashModel{})
	r := NewTrashReaper(db, del, 10, 3)
	r.Retrier = retry.NewRetrier(2, time.Millisecond, time.Millisecond)
	r.Now = func() time.Time { return reaperNow }

	rows := func() []model.AttachmentTrashModel {
		var out []model.AttachmentTrashModel
		require.NoError(t, db.Order("attachment_trash_url").Find(&out).Error)
		return out
	}
	return r, rows
}

func TestTrashReaper_DeletesAndRetries(t *testing.T) {
	del := &fakeDeleter{failFor: map[string]int{
		"https://cdn/x/flaky.png":  1,
		"https://cdn/x/broken.png": -1,
	}}
	r, rows := newReaper(t, del)

	seed := model.TrashRowsFor("standalone_event", []string{
		"https://cdn/x/ok.png",
		"https://cdn/x/flaky.png",
		"https://cdn/x/broken.png",
		"https://cdn/x/ok.png", // dua event berbagi lampiran yang sama
	})
	require.NoError(t, r.DB.Create(&seed).Error)

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Scanned)
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 1, res.Failed)

	require.Len(t, del.calls, 2, "one retry for the failed subset")
	assert.Len(t, del.calls[0], 3, "duplicate urls are deleted once")
	assert.ElementsMatch(t, []string{"https://cdn/x/broken.png", "https://cdn/x/flaky.png"}, del.calls[1])

	got := rows()
	require.Len(t, got, 4)
	for _, row := range got {
		if row.AttachmentTrashURL == "https://cdn/x/broken.png" {
			assert.Nil(t, row.AttachmentTrashProcessedAt)
			assert.Equal(t, 1, row.AttachmentTrashAttempts)
			require.NotNil(t, row.AttachmentTrashLastError)
			assert.Contains(t, *row.AttachmentTrashLastError, "access denied")
			continue
		}
		assert.NotNil(t, row.AttachmentTrashProcessedAt, row.AttachmentTrashURL)
	}
}

func TestTrashReaper_GivesUpAfterMaxAttempts(t *testing.T) {
	del := &fakeDeleter{failFor: map[string]int{"https://cdn/x/broken.png": -1}}
	r, rows := newReaper(t, del)
	require.NoError(t, r.DB.Create(&model.AttachmentTrashModel{AttachmentTrashURL: "https://cdn/x/broken.png"}).Error)

	for i := 0; i < 5; i++ {
		_, err := r.RunOnce(context.Background())
		require.NoError(t, err)
	}
	got := rows()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].AttachmentTrashAttempts)
	assert.Len(t, del.calls, 3*2, "three runs, two tries each")
}

func TestTrashReaper_DryRunTouchesNothing(t *testing.T) {
	del := &fakeDeleter{}
	r, rows := newReaper(t, del)
	r.DryRun = true
	require.NoError(t, r.DB.Create(&model.AttachmentTrashModel{AttachmentTrashURL: "https://cdn/x/a.png"}).Error)

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Empty(t, del.calls)
	assert.Nil(t, rows()[0].AttachmentTrashProcessedAt)
}

func TestTrashReaper_PurgesOldProcessedRows(t *testing.T) {
	r, rows := newReaper(t, &fakeDeleter{})
	old := reaperNow.AddDate(0, -3, 0)
	recent := reaperNow.AddDate(0, 0, -1)
	require.NoError(t, r.DB.Create(&[]model.AttachmentTrashModel{
		{AttachmentTrashURL: "https://cdn/x/old.png", AttachmentTrashProcessedAt: &old},
		{AttachmentTrashURL: "https://cdn/x/recent.png", AttachmentTrashProcessedAt: &recent},
	}).Error)

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.EqualValues(t, 1, res.Purged)

	got := rows()
	require.Len(t, got, 1)
	assert.Equal(t, "https://cdn/x/recent.png", got[0].AttachmentTrashURL)
}

func TestExtractKeyFromPublicURL(t *testing.T) {
	t.Setenv("ALI_OSS_PUBLIC_BASE", "")
	tests := map[string]struct {
		in      string
		want    string
		wantErr bool
	}{
		"bucket host": {in: "https://bkt.oss-ap-southeast-5.aliyuncs.com/events/a.png", want: "events/a.png"},
		"with query":  {in: "https://bkt.oss.example.com/events/a.png?x-oss-process=style/thumb", want: "events/a.png"},
		"empty":       {in: "", wantErr: true},
		"host only":   {in: "https://bkt.oss.example.com/", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractKeyFromPublicURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("public base", func(t *testing.T) {
		t.Setenv("ALI_OSS_PUBLIC_BASE", "https://cdn.komunitas.id/")
		got, err := ExtractKeyFromPublicURL("https://cdn.komunitas.id/events/b.webp")
		require.NoError(t, err)
		assert.Equal(t, "events/b.webp", got)
	})
}

func TestOSSService_OwnsKey(t *testing.T) {
	scoped := &OSSService{Prefix: "events"}
	assert.True(t, scoped.ownsKey("events/2024/a.png"))
	assert.False(t, scoped.ownsKey("eventsx/a.png"))
	assert.False(t, scoped.ownsKey("users/avatar.png"))

	assert.True(t, (&OSSService{}).ownsKey("users/avatar.png"), "no prefix = no restriction")
}

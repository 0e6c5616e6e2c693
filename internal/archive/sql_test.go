package archive

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/five82/wayfinder/internal/waypoint"
)

func newTestSQL(t *testing.T, world string) *SQLArchive {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	a, err := NewSQLArchive(db, world)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSQLArchiveExportImport(t *testing.T) {
	a := newTestSQL(t, "overworld")
	ctx := context.Background()

	report, err := a.Export(ctx, sample())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Failed())

	records, importReport, err := a.Import(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, importReport.Applied)
	require.Len(t, records, 2)
	assert.Equal(t, sample()[0], records[0])
	assert.Equal(t, sample()[2], records[1])
}

func TestSQLArchiveUpsertsByWorldAndID(t *testing.T) {
	a := newTestSQL(t, "overworld")
	ctx := context.Background()

	_, err := a.Export(ctx, []waypoint.Record{{ID: 1, Title: "Base"}})
	require.NoError(t, err)
	_, err = a.Export(ctx, []waypoint.Record{{ID: 1, Title: "Home", Pinned: true}})
	require.NoError(t, err)

	records, _, err := a.Import(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Home", records[0].Title)
	assert.True(t, records[0].Pinned)

	other, _, err := a.Import(ctx, "nether")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestNewSQLArchiveRejectsNilDB(t *testing.T) {
	_, err := NewSQLArchive(nil, "w")
	assert.Error(t, err)
}

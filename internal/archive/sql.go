package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/five82/wayfinder/internal/waypoint"
)

// row is the waypoints table layout.
type row struct {
	World      string `gorm:"primaryKey;size:128"`
	WaypointID int    `gorm:"primaryKey;autoIncrement:false"`
	Title      string `gorm:"size:256;not null"`
	X          float64
	Y          float64
	Z          float64
	Icon       string `gorm:"size:64"`
	Color      string `gorm:"size:32"`
	Pinned     bool
	Enabled    bool
	ExportedAt time.Time
}

func (row) TableName() string { return "waypoints" }

func toRow(world string, rec waypoint.Record, at time.Time) row {
	return row{
		World:      world,
		WaypointID: int(rec.ID),
		Title:      rec.Title,
		X:          rec.X,
		Y:          rec.Y,
		Z:          rec.Z,
		Icon:       rec.Icon,
		Color:      rec.Color,
		Pinned:     rec.Pinned,
		Enabled:    rec.Enabled,
		ExportedAt: at,
	}
}

func (r row) record() waypoint.Record {
	return waypoint.Record{
		ID:       waypoint.ID(r.WaypointID),
		Title:    r.Title,
		Position: waypoint.Position{X: r.X, Y: r.Y, Z: r.Z},
		Icon:     r.Icon,
		Color:    r.Color,
		Pinned:   r.Pinned,
		Enabled:  r.Enabled,
	}
}

// SQLArchive stores waypoints in a relational database through gorm.
type SQLArchive struct {
	db    *gorm.DB
	world string
	now   func() time.Time
}

// OpenSQL connects to sqlite (dsn is a file path; empty means in-memory) or
// postgres and prepares the waypoints table.
func OpenSQL(format Format, dsn, world string) (*SQLArchive, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch format {
	case FormatSQLite:
		path := strings.TrimSpace(dsn)
		if path == "" {
			path = "file::memory:"
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	case FormatPostgres:
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	default:
		return nil, fmt.Errorf("format %s is not a sql archive", format)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", format, err)
	}

	if format == FormatSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQLArchive(db, world)
}

// NewSQLArchive wraps an open gorm connection.
func NewSQLArchive(db *gorm.DB, world string) (*SQLArchive, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if strings.TrimSpace(world) == "" {
		world = "world"
	}
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrate waypoints table: %w", err)
	}
	return &SQLArchive{db: db, world: world, now: time.Now}, nil
}

// Close releases the underlying connection.
func (a *SQLArchive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Export upserts each valid record. A failed write is reported for that
// record only.
func (a *SQLArchive) Export(ctx context.Context, records []waypoint.Record) (waypoint.Report, error) {
	valid, report := validRecords(records)
	at := a.now().UTC()

	db := a.db.WithContext(ctx)
	for i, rec := range valid {
		r := toRow(a.world, rec, at)
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "world"}, {Name: "waypoint_id"}},
			UpdateAll: true,
		}).Create(&r).Error
		if err != nil {
			report.Skip(rec.ID, i, fmt.Errorf("%w: %w", waypoint.ErrExternalWrite, err))
			continue
		}
		report.Applied++
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Import reads every waypoint stored for the given world.
func (a *SQLArchive) Import(ctx context.Context, world string) ([]waypoint.Record, waypoint.Report, error) {
	if strings.TrimSpace(world) == "" {
		world = a.world
	}
	var rows []row
	err := a.db.WithContext(ctx).
		Where("world = ?", world).
		Order("waypoint_id").
		Find(&rows).Error
	if err != nil {
		return nil, waypoint.Report{}, fmt.Errorf("query waypoints: %w", err)
	}

	records := make([]waypoint.Record, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	valid, report := validRecords(records)
	report.Applied = len(valid)
	return valid, report, nil
}

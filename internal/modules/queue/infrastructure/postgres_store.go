package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/domain"
)

// snapshotRow maps the snapshots table. The unique index enforces the natural key.
type snapshotRow struct {
	ID           uint           `gorm:"primaryKey"`
	Timestamp    time.Time      `gorm:"not null;uniqueIndex:idx_snapshots_store_ts,priority:2;index"`
	StoreID      int64          `gorm:"not null;uniqueIndex:idx_snapshots_store_ts,priority:1"`
	StoreName    string         `gorm:"not null"`
	TotalLineup  int            `gorm:"not null"`
	QueueDetails datatypes.JSON `gorm:"type:jsonb;not null"`
	RawData      datatypes.JSON `gorm:"type:jsonb"`
}

func (snapshotRow) TableName() string { return "snapshots" }

func toRow(s domain.Snapshot) (snapshotRow, error) {
	details, err := json.Marshal(s.QueueDetails)
	if err != nil {
		return snapshotRow{}, err
	}
	row := snapshotRow{
		Timestamp:    s.Timestamp.UTC(),
		StoreID:      s.StoreID,
		StoreName:    s.StoreName,
		TotalLineup:  s.TotalLineup,
		QueueDetails: datatypes.JSON(details),
	}
	if len(s.RawData) > 0 {
		row.RawData = datatypes.JSON(s.RawData)
	}
	return row, nil
}

func fromRow(row snapshotRow) (domain.Snapshot, error) {
	var details domain.QueueDetails
	if len(row.QueueDetails) > 0 {
		if err := json.Unmarshal(row.QueueDetails, &details); err != nil {
			return domain.Snapshot{}, fmt.Errorf("decode queue_details of row %d: %w", row.ID, err)
		}
	}
	s := domain.Snapshot{
		Timestamp:    row.Timestamp.UTC().Truncate(time.Millisecond),
		StoreID:      row.StoreID,
		StoreName:    row.StoreName,
		TotalLineup:  row.TotalLineup,
		QueueDetails: details,
	}
	if len(row.RawData) > 0 && string(row.RawData) != "null" {
		s.RawData = json.RawMessage(row.RawData)
	}
	return s, nil
}

// PostgresStore is the relational SnapshotStore backed by GORM.
type PostgresStore struct {
	db *gorm.DB
}

var _ port.SnapshotStore = (*PostgresStore)(nil)

// OpenPostgresStore connects with dsn and migrates the snapshots table.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", port.ErrPersistence, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate snapshots table: %w", port.ErrPersistence, err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, snapshots []domain.Snapshot) (port.InsertResult, error) {
	if len(snapshots) == 0 {
		return port.InsertResult{}, nil
	}
	rows := make([]snapshotRow, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if err := snapshot.Validate(); err != nil {
			return port.InsertResult{}, err
		}
		row, err := toRow(snapshot)
		if err != nil {
			return port.InsertResult{}, fmt.Errorf("%w: %w", port.ErrPersistence, err)
		}
		rows = append(rows, row)
	}

	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "timestamp"}},
			DoNothing: true,
		}).
		Create(&rows)
	if tx.Error != nil {
		return port.InsertResult{}, fmt.Errorf("%w: insert snapshots: %w", port.ErrPersistence, tx.Error)
	}
	inserted := int(tx.RowsAffected)
	return port.InsertResult{Inserted: inserted, Duplicates: len(rows) - inserted}, nil
}

func (s *PostgresStore) ListRange(ctx context.Context, from, to time.Time) ([]domain.Snapshot, error) {
	var rows []snapshotRow
	err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), to.UTC()).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %w", port.ErrPersistence, err)
	}
	snapshots := make([]domain.Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", port.ErrPersistence, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s *PostgresStore) Stats(ctx context.Context, loc *time.Location) (port.StoreStats, error) {
	if loc == nil {
		loc = time.UTC
	}
	stats := port.StoreStats{AvailableDates: []string{}}

	var total int64
	if err := s.db.WithContext(ctx).Model(&snapshotRow{}).Count(&total).Error; err != nil {
		return port.StoreStats{}, fmt.Errorf("%w: count snapshots: %w", port.ErrPersistence, err)
	}
	stats.TotalRecords = int(total)

	err := s.db.WithContext(ctx).
		Raw(`SELECT DISTINCT to_char(timestamp AT TIME ZONE ?, 'YYYY-MM-DD') AS day FROM snapshots ORDER BY day`, zoneName(loc)).
		Scan(&stats.AvailableDates).Error
	if err != nil {
		return port.StoreStats{}, fmt.Errorf("%w: list snapshot dates: %w", port.ErrPersistence, err)
	}
	if n := len(stats.AvailableDates); n > 0 {
		stats.FirstDate = stats.AvailableDates[0]
		stats.LastDate = stats.AvailableDates[n-1]
	}
	return stats, nil
}

func (s *PostgresStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).Order("timestamp DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest snapshot: %w", port.ErrPersistence, err)
	}
	snapshot, err := fromRow(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrPersistence, err)
	}
	return &snapshot, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zoneName maps a Go location to an IANA name Postgres understands.
func zoneName(loc *time.Location) string {
	switch name := loc.String(); name {
	case "", "Local":
		return "UTC"
	default:
		return name
	}
}

package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/pkg/logger"
)

var schemas = map[string]string{
	DriverSQLite: `
	CREATE TABLE IF NOT EXISTS user_stats (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		id             TEXT      NOT NULL UNIQUE,
		user_id        TEXT      NOT NULL,
		total_trips    INTEGER   NOT NULL,
		total_hours    REAL      NOT NULL,
		most_used_mode TEXT      NOT NULL DEFAULT '',
		top_stops      TEXT      NOT NULL,
		top_routes     TEXT      NOT NULL,
		start_date     TEXT      NOT NULL,
		end_date       TEXT      NOT NULL,
		period_type    TEXT      NOT NULL,
		total_days     INTEGER   NOT NULL,
		estimate       TEXT,
		created_at     TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_user_stats_user   ON user_stats (user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_user_stats_period ON user_stats (period_type);
	`,
	DriverPostgres: `
	CREATE TABLE IF NOT EXISTS user_stats (
		seq            BIGSERIAL PRIMARY KEY,
		id             TEXT             NOT NULL UNIQUE,
		user_id        TEXT             NOT NULL,
		total_trips    INTEGER          NOT NULL,
		total_hours    DOUBLE PRECISION NOT NULL,
		most_used_mode TEXT             NOT NULL DEFAULT '',
		top_stops      TEXT             NOT NULL,
		top_routes     TEXT             NOT NULL,
		start_date     TEXT             NOT NULL,
		end_date       TEXT             NOT NULL,
		period_type    TEXT             NOT NULL,
		total_days     INTEGER          NOT NULL,
		estimate       TEXT,
		created_at     TIMESTAMPTZ      NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_user_stats_user   ON user_stats (user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_user_stats_period ON user_stats (period_type);
	`,
}

const statsColumns = `id, user_id, total_trips, total_hours, most_used_mode, top_stops, top_routes,
	start_date, end_date, period_type, total_days, estimate, created_at`

// statsRow is the flattened table layout of a record.
type statsRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	TotalTrips   int            `db:"total_trips"`
	TotalHours   float64        `db:"total_hours"`
	MostUsedMode string         `db:"most_used_mode"`
	TopStops     string         `db:"top_stops"`
	TopRoutes    string         `db:"top_routes"`
	StartDate    string         `db:"start_date"`
	EndDate      string         `db:"end_date"`
	PeriodType   string         `db:"period_type"`
	TotalDays    int            `db:"total_days"`
	Estimate     sql.NullString `db:"estimate"`
	CreatedAt    time.Time      `db:"created_at"`
}

// SQLStore persists records in SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	now    func() time.Time
	logger logger.Logger
}

func openSQL(ctx context.Context, driverName string, s *settings) (*SQLStore, error) {
	name := driverName
	if driverName == DriverSQLite {
		name = "sqlite3"
	}
	db, err := sqlx.Open(name, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, driverName, err)
	}
	return NewSQLStore(ctx, db, driverName, WithClock(s.now), WithLogger(s.logger))
}

// NewSQLStore wraps an open connection and creates the schema if missing.
func NewSQLStore(ctx context.Context, db *sqlx.DB, driverName string, opts ...Option) (*SQLStore, error) {
	schema, ok := schemas[driverName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driverName)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", mapSQLError(err))
	}
	s := newSettings(opts)
	s.logger.Info(ctx, "user_stats table is ready", logger.String("driver", driverName))
	return &SQLStore{db: db, now: s.now, logger: s.logger}, nil
}

// Insert writes one row.
func (s *SQLStore) Insert(ctx context.Context, stats *model.UserStats) error {
	id := uuid.NewString()
	createdAt := s.now().UTC()

	row, err := toRow(stats)
	if err != nil {
		return err
	}
	row.ID, row.CreatedAt = id, createdAt

	query := `INSERT INTO user_stats (` + statsColumns + `) VALUES (
		:id, :user_id, :total_trips, :total_hours, :most_used_mode, :top_stops, :top_routes,
		:start_date, :end_date, :period_type, :total_days, :estimate, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert user stats: %w", mapSQLError(err))
	}
	stats.ID, stats.CreatedAt = id, createdAt
	return nil
}

// Latest returns the newest row of userID.
func (s *SQLStore) Latest(ctx context.Context, userID string) (model.UserStats, error) {
	var row statsRow
	query := s.db.Rebind(`SELECT ` + statsColumns + ` FROM user_stats
		WHERE user_id = ? ORDER BY created_at DESC, seq DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserStats{}, ErrNotFound
		}
		return model.UserStats{}, fmt.Errorf("latest user stats: %w", mapSQLError(err))
	}
	return fromRow(row)
}

// ListByPeriod returns rows with periodType, oldest first.
func (s *SQLStore) ListByPeriod(ctx context.Context, periodType string) ([]model.UserStats, error) {
	var rows []statsRow
	query := s.db.Rebind(`SELECT ` + statsColumns + ` FROM user_stats
		WHERE period_type = ? ORDER BY created_at, seq`)
	if err := s.db.SelectContext(ctx, &rows, query, periodType); err != nil {
		return nil, fmt.Errorf("list user stats: %w", mapSQLError(err))
	}
	out := make([]model.UserStats, 0, len(rows))
	for _, r := range rows {
		st, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

func toRow(st *model.UserStats) (statsRow, error) {
	stops, err := json.Marshal(nonNil(st.TopStops))
	if err != nil {
		return statsRow{}, fmt.Errorf("encode top stops: %w", err)
	}
	routes, err := json.Marshal(nonNil(st.TopRoutes))
	if err != nil {
		return statsRow{}, fmt.Errorf("encode top routes: %w", err)
	}
	row := statsRow{
		UserID:       st.UserID,
		TotalTrips:   st.TotalTrips,
		TotalHours:   st.TotalHours,
		MostUsedMode: st.MostUsedMode,
		TopStops:     string(stops),
		TopRoutes:    string(routes),
		StartDate:    st.TimePeriod.StartDate,
		EndDate:      st.TimePeriod.EndDate,
		PeriodType:   st.TimePeriod.PeriodType,
		TotalDays:    st.TimePeriod.TotalDays,
	}
	if st.Estimate != nil {
		est, err := json.Marshal(st.Estimate)
		if err != nil {
			return statsRow{}, fmt.Errorf("encode estimate: %w", err)
		}
		row.Estimate = sql.NullString{String: string(est), Valid: true}
	}
	return row, nil
}

func fromRow(r statsRow) (model.UserStats, error) {
	st := model.UserStats{
		ID:           r.ID,
		UserID:       r.UserID,
		TotalTrips:   r.TotalTrips,
		TotalHours:   r.TotalHours,
		MostUsedMode: r.MostUsedMode,
		TimePeriod: model.TimePeriod{
			StartDate:  r.StartDate,
			EndDate:    r.EndDate,
			PeriodType: r.PeriodType,
			TotalDays:  r.TotalDays,
		},
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.TopStops), &st.TopStops); err != nil {
		return model.UserStats{}, fmt.Errorf("decode top stops of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TopRoutes), &st.TopRoutes); err != nil {
		return model.UserStats{}, fmt.Errorf("decode top routes of %s: %w", r.ID, err)
	}
	if r.Estimate.Valid {
		st.Estimate = &model.Estimate{}
		if err := json.Unmarshal([]byte(r.Estimate.String), st.Estimate); err != nil {
			return model.UserStats{}, fmt.Errorf("decode estimate of %s: %w", r.ID, err)
		}
	}
	return st, nil
}

func nonNil(c []model.NamedCount) []model.NamedCount {
	if c == nil {
		return []model.NamedCount{}
	}
	return c
}

// mapSQLError marks connection failures as retryable.
func mapSQLError(err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

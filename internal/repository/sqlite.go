package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/askhatb/go-fire-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS fires (
			id TEXT PRIMARY KEY,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			daynight TEXT,
			address TEXT,
			time_fire DATETIME NOT NULL,
			request_time DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS crowd_reports (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			address TEXT,
			time_fire DATETIME NOT NULL,
			photo TEXT,
			definition TEXT
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT,
			phone_number TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_locations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			last_updated DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notification_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			message TEXT,
			sent_at DATETIME NOT NULL,
			success INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_fires_dedup ON fires(latitude, longitude, time_fire);
		CREATE INDEX IF NOT EXISTS idx_fires_request_time ON fires(request_time);
		CREATE INDEX IF NOT EXISTS idx_reports_time_fire ON crowd_reports(time_fire);
		CREATE INDEX IF NOT EXISTS idx_locations_last_updated ON user_locations(last_updated);
		CREATE INDEX IF NOT EXISTS idx_notification_log_key ON notification_log(user_id, event_id, event_type);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Add(ctx context.Context, f *models.Fire) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fires (id, latitude, longitude, daynight, address, time_fire, request_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Latitude, f.Longitude, f.Daynight, f.Address,
		f.TimeFire.UTC(), f.RequestTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error inserting fire: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Fire, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, latitude, longitude, daynight, address, time_fire, request_time
		FROM fires WHERE id = ?`, id)

	f, err := scanFire(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting fire: %w", err)
	}
	return f, nil
}

func (s *SQLiteDB) ExistsAt(ctx context.Context, latitude, longitude float64, timeFire time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM fires
		WHERE latitude = ? AND longitude = ? AND time_fire = ?
		LIMIT 1`,
		latitude, longitude, timeFire.UTC(),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking fire existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) ListIngestedSince(ctx context.Context, cutoff time.Time) ([]models.Fire, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, daynight, address, time_fire, request_time
		FROM fires WHERE request_time >= ?
		ORDER BY request_time`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("error listing recent fires: %w", err)
	}
	defer rows.Close()

	return collectFires(rows)
}

func (s *SQLiteDB) ListFires(ctx context.Context, opts FireFilter) ([]models.Fire, error) {
	query := `
		SELECT id, latitude, longitude, daynight, address, time_fire, request_time
		FROM fires`
	var args []any
	if opts.Since != nil {
		query += " WHERE time_fire >= ?"
		args = append(args, opts.Since.UTC())
	}
	query += " ORDER BY time_fire DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing fires: %w", err)
	}
	defer rows.Close()

	return collectFires(rows)
}

// DuplicateGroups scans fires ordered by (request_time, id) so the first
// member of every group is the earliest-ingested record. The reconciler
// keeps that member; ordering here is what makes the survivor deterministic.
func (s *SQLiteDB) DuplicateGroups(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, time_fire
		FROM fires ORDER BY request_time, id`)
	if err != nil {
		return nil, fmt.Errorf("error scanning for duplicates: %w", err)
	}
	defer rows.Close()

	groups := make(map[string][]string)
	var order []string
	for rows.Next() {
		var (
			id       string
			lat, lon float64
			timeFire time.Time
		)
		if err := rows.Scan(&id, &lat, &lon, &timeFire); err != nil {
			return nil, fmt.Errorf("error scanning duplicate row: %w", err)
		}
		key := dedupKey(lat, lon, timeFire)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate rows: %w", err)
	}

	var result [][]string
	for _, key := range order {
		if ids := groups[key]; len(ids) > 1 {
			result = append(result, ids)
		}
	}
	return result, nil
}

func (s *SQLiteDB) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM fires WHERE id IN (%s)", strings.Join(placeholders, ","))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting fires: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) AddReport(ctx context.Context, r *models.CrowdReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crowd_reports (id, user_id, latitude, longitude, address, time_fire, photo, definition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Latitude, r.Longitude, r.Address,
		r.TimeFire.UTC(), r.Photo, r.Definition,
	)
	if err != nil {
		return fmt.Errorf("error inserting crowd report: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListReportedSince(ctx context.Context, cutoff time.Time) ([]models.CrowdReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, latitude, longitude, address, time_fire, photo, definition
		FROM crowd_reports WHERE time_fire >= ?
		ORDER BY time_fire`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("error listing recent reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

func (s *SQLiteDB) ListReports(ctx context.Context, limit int) ([]models.CrowdReport, error) {
	query := `
		SELECT id, user_id, latitude, longitude, address, time_fire, photo, definition
		FROM crowd_reports ORDER BY time_fire DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	defer rows.Close()

	return collectReports(rows)
}

func (s *SQLiteDB) UpsertLocation(ctx context.Context, l *models.UserLocation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_locations (id, user_id, latitude, longitude, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			last_updated = excluded.last_updated`,
		l.ID, l.UserID, l.Latitude, l.Longitude, l.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error upserting location: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListActiveSince(ctx context.Context, cutoff time.Time) ([]models.UserLocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, latitude, longitude, last_updated
		FROM user_locations WHERE last_updated >= ?`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("error listing active locations: %w", err)
	}
	defer rows.Close()

	var locations []models.UserLocation
	for rows.Next() {
		var l models.UserLocation
		if err := rows.Scan(&l.ID, &l.UserID, &l.Latitude, &l.Longitude, &l.LastUpdated); err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *SQLiteDB) AddUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, phone_number) VALUES (?, ?, ?)`,
		u.ID, u.Name, u.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT id, name, phone_number FROM users WHERE id IN (%s)",
		strings.Join(placeholders, ","),
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error getting users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PhoneNumber); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteDB) AddLog(ctx context.Context, l *models.NotificationLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, user_id, event_id, event_type, message, sent_at, success)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.EventID, string(l.EventType), l.Message, l.SentAt.UTC(), l.Success,
	)
	if err != nil {
		return fmt.Errorf("error inserting notification log: %w", err)
	}
	return nil
}

func (s *SQLiteDB) LogExists(ctx context.Context, userID, eventID string, eventType models.EventType) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM notification_log
		WHERE user_id = ? AND event_id = ? AND event_type = ?
		LIMIT 1`,
		userID, eventID, string(eventType),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking notification log: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFire(row rowScanner) (*models.Fire, error) {
	var f models.Fire
	var address sql.NullString
	err := row.Scan(&f.ID, &f.Latitude, &f.Longitude, &f.Daynight, &address, &f.TimeFire, &f.RequestTime)
	if err != nil {
		return nil, err
	}
	f.Address = address.String
	return &f, nil
}

func collectFires(rows *sql.Rows) ([]models.Fire, error) {
	var fires []models.Fire
	for rows.Next() {
		f, err := scanFire(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning fire: %w", err)
		}
		fires = append(fires, *f)
	}
	return fires, rows.Err()
}

func collectReports(rows *sql.Rows) ([]models.CrowdReport, error) {
	var reports []models.CrowdReport
	for rows.Next() {
		var r models.CrowdReport
		var address sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.Latitude, &r.Longitude, &address, &r.TimeFire, &r.Photo, &r.Definition); err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		r.Address = address.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func dedupKey(lat, lon float64, timeFire time.Time) string {
	return strconv.FormatFloat(lat, 'g', -1, 64) + "|" +
		strconv.FormatFloat(lon, 'g', -1, 64) + "|" +
		strconv.FormatInt(timeFire.UTC().UnixNano(), 10)
}

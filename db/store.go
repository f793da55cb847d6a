package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeenRecord is the last observed activity for a user. One row per username,
// overwritten on every new message.
type SeenRecord struct {
	Username string
	Message  string
	SeenAt   time.Time
}

// Notification is a queued tell for a recipient, delivered the next time they speak.
type Notification struct {
	ID        int64
	Recipient string
	Via       string
	Message   string
}

// LocationRecord is a cached geocoding result keyed by the free-text query.
// Entries are written once and never updated.
type LocationRecord struct {
	Lat     float64
	Lon     float64
	City    string
	Country string
}

// CoinSnapshot caches the last rendered price lines for a symbol.
type CoinSnapshot struct {
	Symbol    string
	AsOf      time.Time
	GraphLine string
	StatsLine string
}

// Store wraps a *sql.DB with the narrow operations the dispatcher needs.
// Every method is safe for concurrent use; each call is a single-row
// upsert/select/delete with no cross-call transaction requirements.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// GetSeen returns the seen record for nick (case-insensitive), or nil if absent.
func (s *Store) GetSeen(ctx context.Context, nick string) (*SeenRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT username, message, seen_at FROM seen WHERE LOWER(username) = LOWER($1)`, nick)
	var rec SeenRecord
	if err := row.Scan(&rec.Username, &rec.Message, &rec.SeenAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get seen: %w", err)
	}
	return &rec, nil
}

// UpsertSeen records the latest activity for a user, replacing any prior row.
func (s *Store) UpsertSeen(ctx context.Context, rec SeenRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO seen(username, message, seen_at) VALUES($1,$2,$3)
		 ON CONFLICT(username) DO UPDATE SET message=EXCLUDED.message, seen_at=EXCLUDED.seen_at`,
		rec.Username, rec.Message, rec.SeenAt)
	if err != nil {
		return fmt.Errorf("upsert seen: %w", err)
	}
	return nil
}

// AddNotification queues a message for recipient.
func (s *Store) AddNotification(ctx context.Context, n Notification) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO notifications(recipient, via, message) VALUES($1,$2,$3)`,
		n.Recipient, n.Via, n.Message)
	if err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	return nil
}

// TakeNotifications returns up to max pending notifications for recipient
// (case-insensitive, oldest first) and deletes them. Delivery is at-most-once:
// rows are removed whether or not the caller manages to emit them.
func (s *Store) TakeNotifications(ctx context.Context, recipient string, max int) ([]Notification, error) {
	rows, err := s.DB.QueryContext(ctx,
		`DELETE FROM notifications
		 WHERE id IN (
			SELECT id FROM notifications WHERE LOWER(recipient) = LOWER($1) ORDER BY id LIMIT $2
		 )
		 RETURNING id, recipient, via, message`, recipient, max)
	if err != nil {
		return nil, fmt.Errorf("take notifications: %w", err)
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Via, &n.Message); err != nil {
			return out, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetLocation returns the cached geocode result for query (case-insensitive), or nil.
func (s *Store) GetLocation(ctx context.Context, query string) (*LocationRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT lat, lon, COALESCE(city,''), country FROM locations WHERE LOWER(loc) = LOWER($1)`, query)
	var rec LocationRecord
	if err := row.Scan(&rec.Lat, &rec.Lon, &rec.City, &rec.Country); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &rec, nil
}

// PutLocation caches a geocode result. Existing entries are left untouched:
// a query string geocodes once and the first answer sticks.
func (s *Store) PutLocation(ctx context.Context, query string, rec LocationRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO locations(loc, lat, lon, city, country) VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT(loc) DO NOTHING`,
		query, rec.Lat, rec.Lon, rec.City, rec.Country)
	if err != nil {
		return fmt.Errorf("put location: %w", err)
	}
	return nil
}

// GetWeatherPref returns the stored coordinates for user, or ok=false if absent.
func (s *Store) GetWeatherPref(ctx context.Context, user string) (lat, lon float64, ok bool, err error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT lat, lon FROM weather_prefs WHERE LOWER(username) = LOWER($1)`, user)
	if err := row.Scan(&lat, &lon); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("get weather pref: %w", err)
	}
	return lat, lon, true, nil
}

// PutWeatherPref upserts the last location of interest for a user.
func (s *Store) PutWeatherPref(ctx context.Context, user string, lat, lon float64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO weather_prefs(username, lat, lon, updated_at) VALUES($1,$2,$3,NOW())
		 ON CONFLICT(username) DO UPDATE SET lat=EXCLUDED.lat, lon=EXCLUDED.lon, updated_at=NOW()`,
		user, lat, lon)
	if err != nil {
		return fmt.Errorf("put weather pref: %w", err)
	}
	return nil
}

// GetCoinSnapshot returns the cached price lines for symbol, or nil.
func (s *Store) GetCoinSnapshot(ctx context.Context, symbol string) (*CoinSnapshot, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT symbol, as_of, graph_line, stats_line FROM coin_snapshots WHERE symbol = $1`, symbol)
	var snap CoinSnapshot
	if err := row.Scan(&snap.Symbol, &snap.AsOf, &snap.GraphLine, &snap.StatsLine); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get coin snapshot: %w", err)
	}
	return &snap, nil
}

// PutCoinSnapshot upserts the rendered price lines for a symbol.
func (s *Store) PutCoinSnapshot(ctx context.Context, snap CoinSnapshot) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO coin_snapshots(symbol, as_of, graph_line, stats_line) VALUES($1,$2,$3,$4)
		 ON CONFLICT(symbol) DO UPDATE SET as_of=EXCLUDED.as_of, graph_line=EXCLUDED.graph_line, stats_line=EXCLUDED.stats_line`,
		snap.Symbol, snap.AsOf, snap.GraphLine, snap.StatsLine)
	if err != nil {
		return fmt.Errorf("put coin snapshot: %w", err)
	}
	return nil
}

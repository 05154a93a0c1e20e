// Package repository provides the persistence implementations behind the
// domain repository interfaces.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockWatch/internal/domain/models"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding alert rules, positions, favorites
// and the notification queue.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/stockwatch/data.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "stockwatch", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id                TEXT PRIMARY KEY,
			owner_id          TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			kind              TEXT NOT NULL,
			condition         TEXT NOT NULL,
			target_price      REAL NOT NULL DEFAULT 0,
			percentage_change REAL NOT NULL DEFAULT 0,
			base_price        REAL NOT NULL DEFAULT 0,
			position_id       TEXT,
			state             TEXT NOT NULL DEFAULT 'active',
			triggered_at      INTEGER,
			message           TEXT NOT NULL DEFAULT '',
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_rules_state ON alert_rules(state)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_rules_owner ON alert_rules(owner_id)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id             TEXT PRIMARY KEY,
			owner_id       TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			quantity       REAL NOT NULL,
			purchase_price REAL NOT NULL,
			purchase_date  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_owner ON positions(owner_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			kind       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			payload    TEXT NOT NULL DEFAULT '{}',
			delivered  INTEGER NOT NULL DEFAULT 0,
			read       INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_delivered ON notifications(delivered)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_owner ON notifications(owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			owner_id TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			PRIMARY KEY (owner_id, symbol)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---- AlertStore ----

const alertCols = `id, owner_id, symbol, kind, condition, target_price,
	percentage_change, base_price, position_id, state, triggered_at, message, created_at`

func (s *Store) Create(ctx context.Context, rule *models.AlertRule) error {
	var triggeredAt sql.NullInt64
	if rule.TriggeredAt != nil {
		triggeredAt = sql.NullInt64{Int64: rule.TriggeredAt.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_rules
			(id, owner_id, symbol, kind, condition, target_price,
			 percentage_change, base_price, position_id, state, triggered_at, message, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rule.ID, rule.OwnerID, rule.Symbol, string(rule.Kind), string(rule.Condition),
		rule.TargetPrice, rule.PercentageChange, rule.BasePrice, rule.PositionID,
		string(rule.State), triggeredAt, rule.Message, rule.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert rule: %w", err)
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]*models.AlertRule, error) {
	return s.queryRules(ctx, `SELECT `+alertCols+` FROM alert_rules WHERE state = 'active'`)
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*models.AlertRule, error) {
	return s.queryRules(ctx,
		`SELECT `+alertCols+` FROM alert_rules WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// MarkTriggered flips a rule from active to triggered. The WHERE clause on
// state makes the transition one-way: a rule that already triggered, or was
// disabled in the meantime, is left alone and false is returned.
func (s *Store) MarkTriggered(ctx context.Context, id string, at time.Time, message string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alert_rules SET state = 'triggered', triggered_at = ?, message = ?
		WHERE id = ? AND state = 'active'`,
		at.UnixNano(), message, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM alert_rules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]*models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert rules: %w", err)
	}
	defer rows.Close()

	rules := []*models.AlertRule{}
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func scanRule(scan func(...any) error) (*models.AlertRule, error) {
	var r models.AlertRule
	var kind, condition, state string
	var positionID sql.NullString
	var triggeredAt sql.NullInt64
	var createdAtNano int64
	err := scan(
		&r.ID, &r.OwnerID, &r.Symbol, &kind, &condition, &r.TargetPrice,
		&r.PercentageChange, &r.BasePrice, &positionID, &state, &triggeredAt,
		&r.Message, &createdAtNano,
	)
	if err != nil {
		return nil, err
	}
	r.Kind = models.AlertKind(kind)
	r.Condition = models.AlertCondition(condition)
	r.State = models.AlertState(state)
	r.PositionID = positionID.String
	if triggeredAt.Valid {
		t := time.Unix(0, triggeredAt.Int64)
		r.TriggeredAt = &t
	}
	r.CreatedAt = time.Unix(0, createdAtNano)
	return &r, nil
}

// ---- PositionStore ----

func (s *Store) Get(ctx context.Context, id string) (*models.Position, error) {
	return s.getPosition(ctx,
		`SELECT id, owner_id, symbol, quantity, purchase_price, purchase_date
		 FROM positions WHERE id = ?`, id)
}

func (s *Store) GetOwned(ctx context.Context, id, ownerID string) (*models.Position, error) {
	return s.getPosition(ctx,
		`SELECT id, owner_id, symbol, quantity, purchase_price, purchase_date
		 FROM positions WHERE id = ? AND owner_id = ?`, id, ownerID)
}

func (s *Store) getPosition(ctx context.Context, query string, args ...any) (*models.Position, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	var p models.Position
	var purchaseDateNano int64
	err := row.Scan(&p.ID, &p.OwnerID, &p.Symbol, &p.Quantity, &p.PurchasePrice, &purchaseDateNano)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	p.PurchaseDate = time.Unix(0, purchaseDateNano)
	return &p, nil
}

// SavePosition upserts a position. Used by seeding and tests.
func (s *Store) SavePosition(ctx context.Context, p *models.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions
			(id, owner_id, symbol, quantity, purchase_price, purchase_date)
		VALUES (?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Symbol, p.Quantity, p.PurchasePrice, p.PurchaseDate.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// ---- NotificationStore ----

func (s *Store) Append(ctx context.Context, n *models.Notification) error {
	payloadJSON, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications
			(id, owner_id, kind, title, body, payload, delivered, read, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		n.ID, n.OwnerID, string(n.Kind), n.Title, n.Body, string(payloadJSON),
		boolToInt(n.Delivered), boolToInt(n.Read), n.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListUndelivered(ctx context.Context) ([]*models.Notification, error) {
	return s.queryNotifications(ctx, `
		SELECT id, owner_id, kind, title, body, payload, delivered, read, created_at
		FROM notifications WHERE delivered = 0 ORDER BY created_at ASC`)
}

// MarkDelivered sets the delivered flag. The flag is monotonic: there is no
// path back to undelivered, so marking twice is harmless.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.Notification, error) {
	return s.queryNotifications(ctx, `
		SELECT id, owner_id, kind, title, body, payload, delivered, read, created_at
		FROM notifications WHERE owner_id = ?
		ORDER BY created_at DESC LIMIT ?`, ownerID, limit)
}

func (s *Store) MarkRead(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ArchiveOlderThan deletes delivered notifications created before cutoff and
// returns how many were removed.
func (s *Store) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE delivered = 1 AND created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to archive notifications: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) queryNotifications(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifs := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		var kind, payloadJSON string
		var delivered, read int
		var createdAtNano int64
		err := rows.Scan(&n.ID, &n.OwnerID, &kind, &n.Title, &n.Body,
			&payloadJSON, &delivered, &read, &createdAtNano)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadJSON), &n.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		n.Kind = models.NotificationKind(kind)
		n.Delivered = delivered != 0
		n.Read = read != 0
		n.CreatedAt = time.Unix(0, createdAtNano)
		notifs = append(notifs, &n)
	}
	return notifs, rows.Err()
}

// ---- FavoritesSource ----

// FavoritesUnion returns the distinct set of symbols favorited by any user.
func (s *Store) FavoritesUnion(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM favorites ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// AddFavorite records a user's favorite symbol. Duplicate adds are no-ops.
func (s *Store) AddFavorite(ctx context.Context, ownerID, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (owner_id, symbol) VALUES (?,?)`, ownerID, symbol)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a favorite. Removing an absent row is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, ownerID, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE owner_id = ? AND symbol = ?`, ownerID, symbol)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

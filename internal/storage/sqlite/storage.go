package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// dateLayout is how expiry dates are stored; time-of-day is never persisted
const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    token   TEXT PRIMARY KEY,
    user    TEXT NOT NULL,
    version TEXT NOT NULL DEFAULT '',
    expires TEXT NOT NULL,
    uses    INTEGER NOT NULL,
    used    INTEGER NOT NULL DEFAULT 0,
    created INTEGER NOT NULL
);

-- session_id carries no uniqueness: one session may hold claims on several
-- tokens, exclusivity is keyed per token
CREATE TABLE IF NOT EXISTS session_bindings (
    token      TEXT PRIMARY KEY REFERENCES tokens(token) ON DELETE CASCADE,
    session_id TEXT NOT NULL,
    bound_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS player_log (
    friend_code    INTEGER PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    past_names     TEXT NOT NULL DEFAULT '[]',
    history        TEXT NOT NULL DEFAULT '[]',
    blacklisted    INTEGER NOT NULL DEFAULT 0,
    blacklist_name TEXT NOT NULL DEFAULT ''
);
`

// Storage is a SQLite-backed implementation of the storage interface.
// Rename history and prior names are serialized as JSON text columns; that
// serialization never leaves this package.
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens (or creates) the SQLite database at path and ensures the schema
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// toMillis normalizes timestamps into millisecond precision for storage
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Token operations

func (s *Storage) SaveToken(ctx context.Context, token *model.Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tokens (token, user, version, expires, uses, used, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(token.ID), token.User, token.Version,
		token.Expires.UTC().Format(dateLayout),
		token.Uses, token.Used, toMillis(token.Created),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Storage) GetToken(ctx context.Context, id model.TokenID) (*model.Token, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, user, version, expires, uses, used, created FROM tokens WHERE token = ?`,
		string(id),
	)
	token, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTokenNotFound
	}
	return token, err
}

func (s *Storage) DeleteToken(ctx context.Context, id model.TokenID) error {
	// Bindings go via ON DELETE CASCADE
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE token = ?`, string(id)); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *Storage) ListTokens(ctx context.Context) ([]*model.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, user, version, expires, uses, used, created FROM tokens ORDER BY created`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (s *Storage) UpdateTokenUsed(ctx context.Context, id model.TokenID, used int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tokens SET used = ? WHERE token = ?`, used, string(id))
	if err != nil {
		return fmt.Errorf("update token usage: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrTokenNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*model.Token, error) {
	var (
		token   model.Token
		id      string
		expires string
		created int64
	)
	if err := row.Scan(&id, &token.User, &token.Version, &expires, &token.Uses, &token.Used, &created); err != nil {
		return nil, err
	}
	expiry, err := time.ParseInLocation(dateLayout, expires, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse token expiry %q: %w", expires, err)
	}
	token.ID = model.TokenID(id)
	token.Expires = expiry
	token.Created = fromMillis(created)
	return &token, nil
}

// Session binding operations

func (s *Storage) SaveBinding(ctx context.Context, binding *model.SessionBinding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_bindings (token, session_id, bound_at) VALUES (?, ?, ?)`,
		string(binding.TokenID), string(binding.SessionID), toMillis(binding.BoundAt),
	)
	if err != nil {
		return fmt.Errorf("save binding: %w", err)
	}
	return nil
}

func (s *Storage) GetBindingForToken(ctx context.Context, id model.TokenID) (*model.SessionBinding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, session_id, bound_at FROM session_bindings WHERE token = ?`, string(id))
	binding, err := scanBinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBindingNotFound
	}
	return binding, err
}

func (s *Storage) DeleteBindingForToken(ctx context.Context, id model.TokenID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_bindings WHERE token = ?`, string(id)); err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	return nil
}

func (s *Storage) ListBindings(ctx context.Context) ([]*model.SessionBinding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, session_id, bound_at FROM session_bindings`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []*model.SessionBinding
	for rows.Next() {
		binding, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	return bindings, rows.Err()
}

func scanBinding(row rowScanner) (*model.SessionBinding, error) {
	var (
		binding model.SessionBinding
		token   string
		session string
		boundAt int64
	)
	if err := row.Scan(&token, &session, &boundAt); err != nil {
		return nil, err
	}
	binding.TokenID = model.TokenID(token)
	binding.SessionID = model.SessionID(session)
	binding.BoundAt = fromMillis(boundAt)
	return &binding, nil
}

// Player log operations

func (s *Storage) SavePlayer(ctx context.Context, record *model.PlayerRecord) error {
	pastNames, err := json.Marshal(record.PastNames)
	if err != nil {
		return fmt.Errorf("marshal past names: %w", err)
	}
	history, err := json.Marshal(record.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO player_log (friend_code, name, past_names, history, blacklisted, blacklist_name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(record.FriendCode), record.Name, string(pastNames), string(history),
		boolToInt(record.Blacklisted), record.BlacklistName,
	)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT friend_code, name, past_names, history, blacklisted, blacklist_name
		 FROM player_log WHERE friend_code = ?`, int64(fc))
	record, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	return record, err
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT friend_code, name, past_names, history, blacklisted, blacklist_name
		 FROM player_log ORDER BY friend_code`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var records []*model.PlayerRecord
	for rows.Next() {
		record, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanPlayer(row rowScanner) (*model.PlayerRecord, error) {
	var (
		record      model.PlayerRecord
		fc          int64
		pastNames   string
		history     string
		blacklisted int
	)
	if err := row.Scan(&fc, &record.Name, &pastNames, &history, &blacklisted, &record.BlacklistName); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pastNames), &record.PastNames); err != nil {
		return nil, fmt.Errorf("unmarshal past names: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &record.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	record.FriendCode = model.FriendCode(fc)
	record.Blacklisted = blacklisted != 0
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

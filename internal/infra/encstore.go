package infra

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

const prefsDBName = "prefs.db"

// EncryptedPrefStore implements domain.KVStore on a SQLCipher encrypted
// SQLite database. Values are stored as text: string sets as JSON
// arrays, bools and ints via strconv.
type EncryptedPrefStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedPrefStore opens (or creates) the encrypted preference
// database. The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedPrefStore(dataDir string, key []byte) (*EncryptedPrefStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, prefsDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	store := &EncryptedPrefStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *EncryptedPrefStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *EncryptedPrefStore) GetStringSet(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string set %q: %w", key, err)
	}
	return values, nil
}

func (s *EncryptedPrefStore) PutStringSet(ctx context.Context, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.put(ctx, key, string(raw))
}

func (s *EncryptedPrefStore) GetBool(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("failed to decode bool %q: %w", key, err)
	}
	return value, nil
}

func (s *EncryptedPrefStore) PutBool(ctx context.Context, key string, value bool) error {
	return s.put(ctx, key, strconv.FormatBool(value))
}

func (s *EncryptedPrefStore) GetInt64(ctx context.Context, key string) (int64, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to decode int %q: %w", key, err)
	}
	return value, nil
}

func (s *EncryptedPrefStore) PutInt64(ctx context.Context, key string, value int64) error {
	return s.put(ctx, key, strconv.FormatInt(value, 10))
}

// Path returns the database file path.
func (s *EncryptedPrefStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedPrefStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *EncryptedPrefStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *EncryptedPrefStore) put(ctx context.Context, key, value string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO prefs (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, now)
	return err
}

// Ensure EncryptedPrefStore implements domain.KVStore.
var _ domain.KVStore = (*EncryptedPrefStore)(nil)

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/database/migrations"
	"github.com/hgcsasdas/FFHS/internal/users"
)

// SQLiteDatabase implements core.Database and users.Store using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each pooled connection to :memory: opens its own fresh database, so
	// the pool must never grow past one connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// wrapInsertErr maps SQLite unique-constraint violations onto
// core.ErrUniqueViolation so the engine can tell a constraint race apart
// from a genuine failure.
func wrapInsertErr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", op, core.ErrUniqueViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Bucket operations

func (s *SQLiteDatabase) FindBucketByName(name string) (*core.Bucket, error) {
	return s.scanBucket(s.db.QueryRow(
		`SELECT id, name, path, api_key, created_at FROM buckets WHERE name = ?`, name))
}

func (s *SQLiteDatabase) FindBucketByAPIKey(apiKey string) (*core.Bucket, error) {
	return s.scanBucket(s.db.QueryRow(
		`SELECT id, name, path, api_key, created_at FROM buckets WHERE api_key = ?`, apiKey))
}

func (s *SQLiteDatabase) scanBucket(row *sql.Row) (*core.Bucket, error) {
	var b core.Bucket
	err := row.Scan(&b.ID, &b.Name, &b.Path, &b.APIKey, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding bucket: %w", err)
	}
	return &b, nil
}

func (s *SQLiteDatabase) CreateBucket(b *core.Bucket) error {
	res, err := s.db.Exec(
		`INSERT INTO buckets (name, path, api_key, created_at) VALUES (?, ?, ?, ?)`,
		b.Name, b.Path, b.APIKey, b.CreatedAt)
	if err != nil {
		return wrapInsertErr("inserting bucket", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading bucket id: %w", err)
	}
	b.ID = id
	return nil
}

func (s *SQLiteDatabase) ListBuckets() ([]*core.Bucket, error) {
	rows, err := s.db.Query(
		`SELECT id, name, path, api_key, created_at FROM buckets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer rows.Close()

	var buckets []*core.Bucket
	for rows.Next() {
		var b core.Bucket
		if err := rows.Scan(&b.ID, &b.Name, &b.Path, &b.APIKey, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning bucket: %w", err)
		}
		buckets = append(buckets, &b)
	}
	return buckets, rows.Err()
}

func (s *SQLiteDatabase) UpdateBucketAPIKey(id int64, apiKey string) error {
	_, err := s.db.Exec(`UPDATE buckets SET api_key = ? WHERE id = ?`, apiKey, id)
	if err != nil {
		return wrapInsertErr("updating bucket api key", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteBucket(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM buckets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting bucket: %w", err)
	}
	return nil
}

// File operations

const fileColumns = `id, original_name, stored_name, relative_path, mime_type, size_bytes, hash, upload_time, bucket_id`

func (s *SQLiteDatabase) FindFileByID(id int64) (*core.FileRecord, error) {
	return s.scanFile(s.db.QueryRow(
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
}

func (s *SQLiteDatabase) FindFileByHashAndBucket(hash string, bucketID int64) (*core.FileRecord, error) {
	return s.scanFile(s.db.QueryRow(
		`SELECT `+fileColumns+` FROM files WHERE hash = ? AND bucket_id = ?`, hash, bucketID))
}

func (s *SQLiteDatabase) scanFile(row *sql.Row) (*core.FileRecord, error) {
	var f core.FileRecord
	err := row.Scan(&f.ID, &f.OriginalName, &f.StoredName, &f.RelativePath,
		&f.MimeType, &f.SizeBytes, &f.Hash, &f.UploadTime, &f.BucketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return &f, nil
}

func (s *SQLiteDatabase) ListFilesByBucket(bucketID int64) ([]*core.FileRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+fileColumns+` FROM files WHERE bucket_id = ? ORDER BY id`, bucketID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*core.FileRecord
	for rows.Next() {
		var f core.FileRecord
		if err := rows.Scan(&f.ID, &f.OriginalName, &f.StoredName, &f.RelativePath,
			&f.MimeType, &f.SizeBytes, &f.Hash, &f.UploadTime, &f.BucketID); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (s *SQLiteDatabase) CreateFile(f *core.FileRecord) error {
	res, err := s.db.Exec(
		`INSERT INTO files (original_name, stored_name, relative_path, mime_type, size_bytes, hash, upload_time, bucket_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.OriginalName, f.StoredName, f.RelativePath, f.MimeType,
		f.SizeBytes, f.Hash, f.UploadTime, f.BucketID)
	if err != nil {
		return wrapInsertErr("inserting file", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading file id: %w", err)
	}
	f.ID = id
	return nil
}

func (s *SQLiteDatabase) DeleteFile(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// User operations

const userColumns = `id, username, password_hash, role, enabled, created_at`

func (s *SQLiteDatabase) FindUserByID(id string) (*users.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteDatabase) FindUserByUsername(username string) (*users.User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (s *SQLiteDatabase) scanUser(row *sql.Row) (*users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Enabled, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteDatabase) CreateUser(u *users.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, password_hash, role, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.Enabled, u.CreatedAt)
	if err != nil {
		return wrapInsertErr("inserting user", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListUsers() ([]*users.User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var list []*users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Enabled, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

func (s *SQLiteDatabase) DeleteUser(id string) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp brings the database schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.Up(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time checks that SQLiteDatabase implements both store interfaces
var (
	_ core.Database = (*SQLiteDatabase)(nil)
	_ users.Store   = (*SQLiteDatabase)(nil)
)

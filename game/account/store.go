package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/snake-arcade/game/service"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store implements service.AccountStore on a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path and runs migrations
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open account database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate account database: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP NOT NULL,
			high_score INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_high_score ON users(high_score DESC);`,

		`CREATE TABLE IF NOT EXISTS auth_sessions (
			token TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
		);`,

		`CREATE TABLE IF NOT EXISTS game_records (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			score INTEGER NOT NULL,
			config_name TEXT NOT NULL DEFAULT '',
			played_at TIMESTAMP NOT NULL,
			FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_records_user ON game_records(username, played_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// CreateUser inserts a new user with empty stats
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*service.User, error) {
	createdAt = createdAt.UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, password_hash, created_at, last_login_at) VALUES(?, ?, ?, ?)`,
		username, passwordHash, createdAt, createdAt)
	if err != nil {
		if isConstraintErr(err) {
			return nil, fmt.Errorf("%w: %s", service.ErrUsernameTaken, username)
		}
		return nil, err
	}

	return &service.User{Username: username, CreatedAt: createdAt, LastLoginAt: createdAt}, nil
}

// GetCredentials returns the user and its password hash
func (s *Store) GetCredentials(ctx context.Context, username string) (*service.User, string, error) {
	var (
		user service.User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at, last_login_at FROM users WHERE username=?`,
		username).Scan(&user.Username, &hash, &user.CreatedAt, &user.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", service.ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &user, hash, nil
}

// TouchLogin records a successful login
func (s *Store) TouchLogin(ctx context.Context, username string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=? WHERE username=?`, at.UTC(), username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// SaveToken binds a login token to a user
func (s *Store) SaveToken(ctx context.Context, token, username string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions(token, username, created_at) VALUES(?, ?, ?)`,
		token, username, createdAt.UTC())
	if err != nil && isConstraintErr(err) {
		return fmt.Errorf("%w: %s", service.ErrUserNotFound, username)
	}
	return err
}

// LookupToken returns the username a token belongs to
func (s *Store) LookupToken(ctx context.Context, token string) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT username FROM auth_sessions WHERE token=?`, token).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", service.ErrUnauthorized
	}
	return username, err
}

// DeleteToken forgets a login token. Unknown tokens are not an error.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token=?`, token)
	return err
}

// RecordGame stores a finished game and folds it into the user's stats
func (s *Store) RecordGame(ctx context.Context, record *service.GameRecord) (*service.UserStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET
			high_score = MAX(high_score, ?),
			total_score = total_score + ?,
			games_played = games_played + 1
		WHERE username=?`,
		record.Score, record.Score, record.Username)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrUserNotFound, record.Username)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_records(id, username, score, config_name, played_at) VALUES(?, ?, ?, ?, ?)`,
		record.ID, record.Username, record.Score, record.ConfigName, record.PlayedAt.UTC()); err != nil {
		return nil, err
	}

	stats, err := scanStats(tx.QueryRowContext(ctx, statsQuery, record.Username))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

const statsQuery = `SELECT username, high_score, total_score, games_played, last_login_at FROM users WHERE username=?`

func scanStats(row *sql.Row) (*service.UserStats, error) {
	var stats service.UserStats
	err := row.Scan(&stats.Username, &stats.HighScore, &stats.TotalScore, &stats.GamesPlayed, &stats.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetStats returns a user's aggregated results
func (s *Store) GetStats(ctx context.Context, username string) (*service.UserStats, error) {
	return scanStats(s.db.QueryRowContext(ctx, statsQuery, username))
}

// Leaderboard returns users that finished at least one game, best first
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]*service.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = service.DefaultLeaderboard
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, high_score, games_played FROM users
		WHERE games_played > 0
		ORDER BY high_score DESC, username ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*service.LeaderboardEntry
	for rows.Next() {
		entry := &service.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&entry.Username, &entry.HighScore, &entry.GamesPlayed); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RecentGames returns a user's latest game records, newest first
func (s *Store) RecentGames(ctx context.Context, username string, limit int) ([]*service.GameRecord, error) {
	if limit <= 0 {
		limit = service.DefaultLeaderboard
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, score, config_name, played_at FROM game_records
		WHERE username=?
		ORDER BY played_at DESC, rowid DESC
		LIMIT ?`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*service.GameRecord
	for rows.Next() {
		var r service.GameRecord
		if err := rows.Scan(&r.ID, &r.Username, &r.Score, &r.ConfigName, &r.PlayedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func isConstraintErr(err error) bool {
	// modernc sqlite reports "UNIQUE constraint failed" or "FOREIGN KEY constraint failed"
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed")
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/andresmejia3/facecam/internal/types"
	"github.com/jackc/pgx/v5"
)

// Store manages the PostgreSQL connection holding the snapshot log.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS capture_sessions (
			id TEXT PRIMARY KEY,
			camera_id INT NOT NULL,
			started_at TIMESTAMPTZ DEFAULT NOW(),
			ended_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT REFERENCES capture_sessions(id),
			seq INT NOT NULL,
			path TEXT NOT NULL,
			face_count INT NOT NULL,
			eye_count INT NOT NULL,
			taken_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS snapshots_session_id_idx ON snapshots (session_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// StartSession registers a capture session. Re-registering an ID resets its end time.
func (s *Store) StartSession(ctx context.Context, sessionID string, cameraID int) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO capture_sessions (id, camera_id, started_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET started_at = NOW(), ended_at = NULL
	`, sessionID, cameraID)
	return err
}

// EndSession stamps the end time of a capture session.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.conn.Exec(ctx, "UPDATE capture_sessions SET ended_at = NOW() WHERE id = $1", sessionID)
	return err
}

// InsertSnapshot records a saved snapshot and returns its row ID.
func (s *Store) InsertSnapshot(ctx context.Context, snap types.Snapshot) (int64, error) {
	var id int64
	err := s.conn.QueryRow(ctx, `
		INSERT INTO snapshots (session_id, seq, path, face_count, eye_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, snap.SessionID, snap.Seq, snap.Path, snap.FaceCount, snap.EyeCount).Scan(&id)
	return id, err
}

// ListSnapshots returns the most recent snapshots, newest first. limit <= 0 means no limit.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]types.Snapshot, error) {
	query := `SELECT id, session_id, seq, path, face_count, eye_count, taken_at FROM snapshots ORDER BY taken_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []types.Snapshot
	for rows.Next() {
		var snap types.Snapshot
		var takenAt time.Time
		if err := rows.Scan(&snap.ID, &snap.SessionID, &snap.Seq, &snap.Path, &snap.FaceCount, &snap.EyeCount, &takenAt); err != nil {
			return nil, err
		}
		snap.TakenAt = takenAt
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS snapshots CASCADE;
		DROP TABLE IF EXISTS capture_sessions CASCADE;
	`)
	return err
}

package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tobetutor/internal/modules/conversation/domain"
	conversationout "tobetutor/internal/modules/conversation/port/out"
	apperrors "tobetutor/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteTranscriptArchive struct {
	db *sql.DB
}

var _ conversationout.TranscriptArchive = (*SQLiteTranscriptArchive)(nil)

func NewSQLiteTranscriptArchive(dbPath string) (*SQLiteTranscriptArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	archive := &SQLiteTranscriptArchive{db: db}
	if err := archive.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return archive, nil
}

func (s *SQLiteTranscriptArchive) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  schema_version INTEGER NOT NULL,
  user_name TEXT NOT NULL,
  phase TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT
);
CREATE TABLE IF NOT EXISTS entries (
  session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  speaker TEXT NOT NULL,
  text TEXT NOT NULL,
  at TEXT NOT NULL,
  PRIMARY KEY (session_id, seq)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create transcript tables: %w", err)
	}
	return nil
}

func (s *SQLiteTranscriptArchive) Close() error {
	return s.db.Close()
}

// Save replaces whatever was stored for the session with its current state.
func (s *SQLiteTranscriptArchive) Save(ctx context.Context, session domain.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
INSERT INTO sessions (id, schema_version, user_name, phase, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  schema_version=excluded.schema_version,
  user_name=excluded.user_name,
  phase=excluded.phase,
  started_at=excluded.started_at,
  ended_at=excluded.ended_at;
`
	if _, err := tx.ExecContext(ctx, upsert,
		session.ID,
		domain.SchemaVersion,
		session.UserName,
		session.Phase.String(),
		session.StartedAt.Format(timeLayout),
		formatOptional(session.EndedAt),
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (session_id, seq, speaker, text, at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range session.Transcript {
		if _, err := stmt.ExecContext(ctx, session.ID, e.Seq, string(e.Speaker), e.Text, e.At.Format(timeLayout)); err != nil {
			return fmt.Errorf("insert entry %d: %w", e.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// List returns the most recently started sessions first.
func (s *SQLiteTranscriptArchive) List(ctx context.Context, limit int) ([]domain.Summary, error) {
	const query = `
SELECT s.id, s.user_name, s.phase, s.started_at, s.ended_at,
  (SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id),
  (SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id AND e.speaker = 'bot' AND e.text LIKE ? || '%')
FROM sessions s
ORDER BY s.started_at DESC, s.id
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, query, domain.SuccessMarker, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var (
			sum              domain.Summary
			phase, startedAt string
			endedAt          sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.UserName, &phase, &startedAt, &endedAt, &sum.Entries, &sum.Accepted); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if sum.Phase, err = domain.ParsePhase(phase); err != nil {
			return nil, err
		}
		if sum.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if sum.EndedAt, err = parseOptional(endedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteTranscriptArchive) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	var (
		session          domain.Session
		phase, startedAt string
		endedAt          sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_name, phase, started_at, ended_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&session.ID, &session.UserName, &phase, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session.Phase, err = domain.ParsePhase(phase); err != nil {
		return domain.Session{}, err
	}
	if session.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return domain.Session{}, fmt.Errorf("parse started_at: %w", err)
	}
	if session.EndedAt, err = parseOptional(endedAt); err != nil {
		return domain.Session{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, speaker, text, at FROM entries WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e       domain.Entry
			speaker string
			at      string
		)
		if err := rows.Scan(&e.Seq, &speaker, &e.Text, &at); err != nil {
			return domain.Session{}, fmt.Errorf("scan entry: %w", err)
		}
		e.Speaker = domain.Speaker(speaker)
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return domain.Session{}, fmt.Errorf("parse entry time: %w", err)
		}
		session.Transcript = append(session.Transcript, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("iterate entries: %w", err)
	}
	return session, nil
}

func formatOptional(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}

func parseOptional(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ended_at: %w", err)
	}
	return t, nil
}

package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps transcripts in PostgreSQL so sessions survive process
// restarts. Same invariants as MemoryStore.
type PostgresStore struct {
	pool     *pgxpool.Pool
	maxTurns int
}

func NewPostgresStore(ctx context.Context, databaseURL string, maxTurns int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, maxTurns: maxTurns}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcript_turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq BIGSERIAL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_turns_session_seq ON transcript_turns (session_id, seq);`,
		// At most one system turn per session; lets concurrent seeds race safely.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transcript_turns_system ON transcript_turns (session_id) WHERE role = 'system';`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, sessionID, systemPrompt string) ([]Turn, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript_turns (id, session_id, role, content)
		 VALUES ($1, $2, 'system', $3)
		 ON CONFLICT DO NOTHING`,
		uuid.NewString(), sessionID, systemPrompt,
	)
	if err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	return s.load(ctx, sessionID)
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, turns ...Turn) ([]Turn, error) {
	exists, err := s.sessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	for _, t := range turns {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO transcript_turns (id, session_id, role, content, created_at)
			 VALUES ($1, $2, $3, $4, COALESCE($5, now()))`,
			id, sessionID, string(t.Role), t.Content, nullableTime(t.CreatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("append turn: %w", err)
		}
	}

	if s.maxTurns > 0 {
		// Evict oldest non-system turns beyond the cap; the system turn stays.
		_, err := s.pool.Exec(ctx,
			`DELETE FROM transcript_turns
			 WHERE session_id = $1 AND role <> 'system' AND seq NOT IN (
				SELECT seq FROM transcript_turns
				WHERE session_id = $1 AND role <> 'system'
				ORDER BY seq DESC LIMIT $2
			 )`,
			sessionID, s.maxTurns-1,
		)
		if err != nil {
			return nil, fmt.Errorf("trim session: %w", err)
		}
	}

	return s.load(ctx, sessionID)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (s *PostgresStore) SessionCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM transcript_turns`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) sessionExists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transcript_turns WHERE session_id = $1)`,
		sessionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) load(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, role, content, created_at FROM transcript_turns
		 WHERE session_id = $1
		 ORDER BY CASE WHEN role = 'system' THEN 0 ELSE 1 END, seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var role string
		if err := rows.Scan(&t.ID, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		t.Role = Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}
	return turns, nil
}

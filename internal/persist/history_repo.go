package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mindland/governor/internal/history"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
)

// QualityEvent is one controller action worth keeping.
type QualityEvent struct {
	Frame    uint64
	Action   quality.Action
	Strategy quality.Strategy
	State    thermal.State
	Settings quality.Settings
}

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// StartSession inserts a session row and returns its ID.
func (r *HistoryRepo) StartSession(ctx context.Context, mode, preset string, targetFPS float64) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO governor_sessions (mode, target_fps, preset) VALUES ($1, $2, $3) RETURNING id`,
		mode, targetFPS, preset,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// EndSession stamps the end time and total frame count.
func (r *HistoryRepo) EndSession(ctx context.Context, sessionID int64, frames uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE governor_sessions SET ended_at = now(), frames = $2 WHERE id = $1`,
		sessionID, int64(frames),
	)
	if err != nil {
		return fmt.Errorf("end session %d: %w", sessionID, err)
	}
	return nil
}

var frameColumns = []string{
	"session_id", "seq", "recorded_at", "frame_time_ns", "cpu_usage",
	"gpu_usage", "memory_usage", "temperature", "fps",
}

// WriteFrames bulk-loads frames with COPY. Returns the number of rows written.
func (r *HistoryRepo) WriteFrames(ctx context.Context, sessionID int64, frames []history.Frame) (int64, error) {
	n, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"performance_frames"},
		frameColumns,
		pgx.CopyFromSlice(len(frames), func(i int) ([]any, error) {
			f := frames[i]
			return []any{
				sessionID, int64(f.Seq), f.Timestamp, int64(f.FrameTime), f.CPUUsage,
				f.GPUUsage, int64(f.MemoryUsage), f.Temperature, f.FPS,
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy frames: %w", err)
	}
	return n, nil
}

// WriteEvents writes a batch of quality events in a single transaction.
func (r *HistoryRepo) WriteEvents(ctx context.Context, sessionID int64, events []QualityEvent) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		s := e.Settings
		if _, err := tx.Exec(ctx,
			`INSERT INTO quality_events (session_id, frame, action, strategy, thermal_state,
			   render_distance, texture, shadow, particle_density, update_frequency)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sessionID, int64(e.Frame), e.Action.String(), e.Strategy.String(), e.State.String(),
			s.RenderDistance, s.Texture.String(), s.Shadow.String(), s.ParticleDensity, s.UpdateFrequency,
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecentFrames loads the newest frames of a session, oldest first.
func (r *HistoryRepo) RecentFrames(ctx context.Context, sessionID int64, limit int) ([]history.Frame, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT seq, recorded_at, frame_time_ns, cpu_usage, gpu_usage, memory_usage, temperature, fps
		 FROM (SELECT * FROM performance_frames WHERE session_id = $1 ORDER BY seq DESC LIMIT $2) t
		 ORDER BY seq`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []history.Frame
	for rows.Next() {
		var (
			f            history.Frame
			seq, ft, mem int64
		)
		if err := rows.Scan(&seq, &f.Timestamp, &ft, &f.CPUUsage, &f.GPUUsage, &mem, &f.Temperature, &f.FPS); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Seq = uint64(seq)
		f.FrameTime = time.Duration(ft)
		f.MemoryUsage = uint64(mem)
		out = append(out, f)
	}
	return out, rows.Err()
}

package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ppdmloader/internal/domain"
)

// RunStore implements persistence for loader run logs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// ErrRunNotFound is returned by GetRunLog for an unknown id.
var ErrRunNotFound = errors.New("run log not found")

// CreateRunLog inserts a run log in the running state and assigns its ID.
func (s *RunStore) CreateRunLog(log *domain.RunLog) error {
	log.ID = uuid.New().String()
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	if log.Status == "" {
		log.Status = domain.RunRunning
	}
	stats, _ := json.Marshal(log.Stats)
	sources, _ := json.Marshal(log.Sources)

	_, err := s.db.conn.Exec(
		`INSERT INTO run_logs (id, trigger_type, started_at, status, stats_json, sources_json, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Trigger, log.StartedAt, log.Status, string(stats), string(sources), log.Error,
	)
	return errors.Wrap(err, "create run log")
}

// FinishRunLog stores the final status, counts and error of a run.
func (s *RunStore) FinishRunLog(log *domain.RunLog) error {
	if log.FinishedAt.IsZero() {
		log.FinishedAt = time.Now()
	}
	stats, _ := json.Marshal(log.Stats)
	sources, _ := json.Marshal(log.Sources)

	_, err := s.db.conn.Exec(
		`UPDATE run_logs SET finished_at=?, status=?, stats_json=?, sources_json=?, error=? WHERE id=?`,
		log.FinishedAt, log.Status, string(stats), string(sources), log.Error, log.ID,
	)
	return errors.Wrap(err, "finish run log")
}

const runLogColumns = `id, trigger_type, started_at, finished_at, status, stats_json, sources_json, error`

func (s *RunStore) GetRunLog(id string) (*domain.RunLog, error) {
	row := s.db.conn.QueryRow(`SELECT `+runLogColumns+` FROM run_logs WHERE id = ?`, id)
	l, err := scanRunLog(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListRunLogs returns the most recent run logs, newest first.
func (s *RunStore) ListRunLogs(limit int) ([]domain.RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT `+runLogColumns+` FROM run_logs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.RunLog
	for rows.Next() {
		l, err := scanRunLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// MarkInterrupted closes out runs left in the running state by a process
// that exited mid-run.
func (s *RunStore) MarkInterrupted() (int, error) {
	res, err := s.db.conn.Exec(
		`UPDATE run_logs SET status=?, finished_at=?, error=? WHERE status=?`,
		domain.RunError, time.Now(), "interrupted", domain.RunRunning,
	)
	if err != nil {
		return 0, errors.Wrap(err, "mark interrupted runs")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunLog(sc rowScanner) (*domain.RunLog, error) {
	var l domain.RunLog
	var finished sql.NullTime
	var status, stats, sources string
	if err := sc.Scan(&l.ID, &l.Trigger, &l.StartedAt, &finished, &status, &stats, &sources, &l.Error); err != nil {
		return nil, err
	}
	l.Status = domain.RunStatus(status)
	if finished.Valid {
		l.FinishedAt = finished.Time
	}
	json.Unmarshal([]byte(stats), &l.Stats)
	json.Unmarshal([]byte(sources), &l.Sources)
	return &l, nil
}

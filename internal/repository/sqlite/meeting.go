package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

var _ repository.MeetingRepository = (*DB)(nil)

const meetingColumns = `id, user_id, creator_id, emotion, scheduled_at, status, meet_link, kind, created_at, updated_at`

func scanMeeting(row interface{ Scan(...any) error }) (*model.Meeting, error) {
	var (
		m           model.Meeting
		scheduledAt int64
	)
	err := row.Scan(&m.ID, &m.UserID, &m.CreatorID, &m.Emotion, &scheduledAt,
		&m.Status, &m.MeetLink, &m.Kind, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.ScheduledAt = time.Unix(scheduledAt, 0).UTC()
	return &m, nil
}

func getMeeting(ctx context.Context, q querier, id string) (*model.Meeting, error) {
	m, err := scanMeeting(q.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meeting", id)
		}
		return nil, fmt.Errorf("sqlite: getting meeting %s: %w", id, err)
	}
	return m, nil
}

func (db *DB) GetMeetingByID(ctx context.Context, id string) (*model.Meeting, error) {
	return getMeeting(ctx, db.conn, id)
}

func (db *DB) ListMeetings(ctx context.Context, f repository.MeetingFilter) ([]model.Meeting, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		conds = append(conds, `user_id = ?`)
		args = append(args, f.UserID)
	}
	if f.CreatorID != "" {
		conds = append(conds, `creator_id = ?`)
		args = append(args, f.CreatorID)
	}
	if !f.From.IsZero() {
		conds = append(conds, `scheduled_at >= ?`)
		args = append(args, f.From.Unix())
	}
	if !f.To.IsZero() {
		conds = append(conds, `scheduled_at <= ?`)
		args = append(args, f.To.Unix())
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, `status IN (`+placeholders(len(f.Statuses))+`)`)
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY scheduled_at, rowid`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meetings: %w", err)
	}
	defer rows.Close()

	meetings := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meeting row: %w", err)
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meetings: %w", err)
	}
	return meetings, nil
}

// Book reserves the creator (optionally), checks for overlapping meetings and
// inserts the meeting, all in one transaction. The reservation is a
// status-guarded UPDATE, so of two concurrent bookings for the same creator
// only one sees a row affected.
func (db *DB) Book(ctx context.Context, b repository.Booking) error {
	m := b.Meeting
	now := time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if b.ReserveCreator {
			res, err := tx.ExecContext(ctx,
				`UPDATE creators SET current_status = ?, support_count = support_count + 1, updated_at = ?
				 WHERE id = ? AND current_status = ? AND available_for_support = 1`,
				string(model.StatusInMeeting), now, m.CreatorID, string(model.StatusOnline),
			)
			if err != nil {
				return fmt.Errorf("sqlite: reserving creator %s: %w", m.CreatorID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("sqlite: checking rows affected: %w", err)
			}
			if n == 0 {
				return repository.SlotTaken()
			}
		}

		if b.OverlapWindow > 0 {
			var clashes int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM meetings
				 WHERE creator_id = ? AND scheduled_at BETWEEN ? AND ? AND status NOT IN (?, ?)`,
				m.CreatorID,
				m.ScheduledAt.Add(-b.OverlapWindow).Unix(),
				m.ScheduledAt.Add(b.OverlapWindow).Unix(),
				string(model.MeetingRejected), string(model.MeetingCancelled),
			).Scan(&clashes)
			if err != nil {
				return fmt.Errorf("sqlite: checking overlapping meetings: %w", err)
			}
			if clashes > 0 {
				return repository.SlotTaken()
			}
		}

		id := xid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meetings (id, user_id, creator_id, emotion, scheduled_at, status, meet_link, kind, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, m.UserID, m.CreatorID, string(m.Emotion), m.ScheduledAt.Unix(),
			string(m.Status), m.MeetLink, string(m.Kind), now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting meeting: %w", err)
		}

		m.ID = id
		m.ScheduledAt = time.Unix(m.ScheduledAt.Unix(), 0).UTC()
		m.CreatedAt = now
		m.UpdatedAt = now
		return nil
	})
}

func (db *DB) Transition(ctx context.Context, c repository.StatusChange) (*model.Meeting, error) {
	var updated *model.Meeting

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getMeeting(ctx, tx, c.MeetingID)
		if err != nil {
			return err
		}
		if current.Status != c.From {
			return repository.StatusChanged(c.MeetingID)
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`UPDATE meetings
			 SET status = ?, meet_link = CASE WHEN ? = '' THEN meet_link ELSE ? END, updated_at = ?
			 WHERE id = ? AND status = ?`,
			string(c.To), c.MeetLink, c.MeetLink, now, c.MeetingID, string(c.From),
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating meeting %s: %w", c.MeetingID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return repository.StatusChanged(c.MeetingID)
		}

		if c.CreatorStatus != "" {
			query := `UPDATE creators SET current_status = ?, updated_at = ? WHERE id = ?`
			args := []any{string(c.CreatorStatus), now, current.CreatorID}
			if c.CreatorStatusFrom != "" {
				query += ` AND current_status = ?`
				args = append(args, string(c.CreatorStatusFrom))
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("sqlite: updating creator %s status: %w", current.CreatorID, err)
			}
		}

		updated, err = getMeeting(ctx, tx, c.MeetingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

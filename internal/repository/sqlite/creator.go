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

var _ repository.CreatorRepository = (*DB)(nil)

const creatorColumns = `id, name, email, password_hash, age, category, available_for_support,
	current_status, rating, support_count, created_at, updated_at`

func scanCreator(row interface{ Scan(...any) error }) (*model.Creator, error) {
	var (
		c         model.Creator
		available int
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Age, &c.Category, &available,
		&c.CurrentStatus, &c.Rating, &c.SupportCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AvailableForSupport = available != 0
	return &c, nil
}

// CreateCreator inserts c together with its emotions and availability.
func (db *DB) CreateCreator(ctx context.Context, c *model.Creator) error {
	now := time.Now().UTC()
	c.ID = xid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Category == "" {
		c.Category = model.CategoryVisuals
	}
	if c.CurrentStatus == "" {
		c.CurrentStatus = model.StatusOffline
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO creators (id, name, email, password_hash, age, category, available_for_support,
			                       current_status, rating, support_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Email, c.PasswordHash, c.Age, string(c.Category), boolToInt(c.AvailableForSupport),
			string(c.CurrentStatus), c.Rating, c.SupportCount, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.EmailTaken()
			}
			return fmt.Errorf("sqlite: inserting creator: %w", err)
		}
		if err := replaceEmotions(ctx, tx, c.ID, c.SupportEmotions); err != nil {
			return err
		}
		return replaceAvailability(ctx, tx, c.ID, c.Availability)
	})
}

func (db *DB) GetCreatorByID(ctx context.Context, id string) (*model.Creator, error) {
	c, err := getCreator(ctx, db.conn, `id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("creator", id)
		}
		return nil, fmt.Errorf("sqlite: getting creator %s: %w", id, err)
	}
	posts, err := listVisualPosts(ctx, db.conn, id)
	if err != nil {
		return nil, err
	}
	c.VisualPosts = posts
	return c, nil
}

func (db *DB) GetCreatorByEmail(ctx context.Context, email string) (*model.Creator, error) {
	c, err := getCreator(ctx, db.conn, `email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrNotFound, "creator not found")
		}
		return nil, fmt.Errorf("sqlite: getting creator by email: %w", err)
	}
	return c, nil
}

// getCreator loads one creator row plus emotions and availability.
func getCreator(ctx context.Context, q querier, where string, arg any) (*model.Creator, error) {
	c, err := scanCreator(q.QueryRowContext(ctx, `SELECT `+creatorColumns+` FROM creators WHERE `+where, arg))
	if err != nil {
		return nil, err
	}
	if err := loadSupportDetails(ctx, q, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) ListCreators(ctx context.Context, f repository.CreatorFilter) ([]model.Creator, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, string(f.Category))
	}
	if f.SupportOnly {
		conds = append(conds, `available_for_support = 1`)
	}
	if f.Status != "" {
		conds = append(conds, `current_status = ?`)
		args = append(args, string(f.Status))
	}
	if f.Emotion != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM creator_emotions e WHERE e.creator_id = creators.id AND e.emotion = ?)`)
		args = append(args, string(f.Emotion))
	}

	query := `SELECT ` + creatorColumns + ` FROM creators`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing creators: %w", err)
	}

	creators := []model.Creator{}
	for rows.Next() {
		c, err := scanCreator(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning creator row: %w", err)
		}
		creators = append(creators, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating creators: %w", err)
	}
	// Close before the detail queries: the pool has one connection.
	rows.Close()

	for i := range creators {
		if err := loadSupportDetails(ctx, db.conn, &creators[i]); err != nil {
			return nil, err
		}
	}
	return creators, nil
}

func (db *DB) UpdateSupportSettings(ctx context.Context, id string, s model.SupportSettings, from, to model.CreatorStatus) (*model.Creator, error) {
	var updated *model.Creator

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE creators SET available_for_support = ?, current_status = ?, updated_at = ?
			 WHERE id = ? AND (? = '' OR current_status = ?)`,
			boolToInt(s.AvailableForSupport), string(to), time.Now().UTC(), id, string(from), string(from),
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating creator %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return missingOrChanged(ctx, tx, id)
		}

		if s.SupportEmotions != nil {
			if err := replaceEmotions(ctx, tx, id, s.SupportEmotions); err != nil {
				return err
			}
		}
		if s.Availability != nil {
			if err := replaceAvailability(ctx, tx, id, s.Availability); err != nil {
				return err
			}
		}

		updated, err = getCreator(ctx, tx, `id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: reloading creator %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) SetCreatorStatus(ctx context.Context, id string, from, to model.CreatorStatus) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE creators SET current_status = ?, updated_at = ? WHERE id = ? AND (? = '' OR current_status = ?)`,
		string(to), time.Now().UTC(), id, string(from), string(from),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting creator %s status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return missingOrChanged(ctx, db.conn, id)
	}
	return nil
}

// missingOrChanged explains a guarded creator update that matched no row.
func missingOrChanged(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM creators WHERE id = ?`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperror.NotFound("creator", id)
	case err != nil:
		return fmt.Errorf("sqlite: checking creator %s: %w", id, err)
	}
	return repository.CreatorStatusChanged(id)
}

func (db *DB) AddVisualPost(ctx context.Context, creatorID string, p *model.VisualPost) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE creators SET updated_at = ? WHERE id = ?`, p.CreatedAt, creatorID)
		if err != nil {
			return fmt.Errorf("sqlite: touching creator %s: %w", creatorID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return apperror.NotFound("creator", creatorID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO visual_posts (id, creator_id, type, content, media_url, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, creatorID, p.Type, p.Content, p.MediaURL, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting visual post: %w", err)
		}
		return nil
	})
}

func (db *DB) ListVisualPosts(ctx context.Context, creatorID string) ([]model.VisualPost, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM creators WHERE id = ?`, creatorID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking creator %s: %w", creatorID, err)
	}
	if exists == 0 {
		return nil, apperror.NotFound("creator", creatorID)
	}
	return listVisualPosts(ctx, db.conn, creatorID)
}

func listVisualPosts(ctx context.Context, q querier, creatorID string) ([]model.VisualPost, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, type, content, media_url, created_at FROM visual_posts
		 WHERE creator_id = ? ORDER BY rowid`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing visual posts: %w", err)
	}
	defer rows.Close()

	posts := []model.VisualPost{}
	for rows.Next() {
		var p model.VisualPost
		if err := rows.Scan(&p.ID, &p.Type, &p.Content, &p.MediaURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning visual post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating visual posts: %w", err)
	}
	return posts, nil
}

// loadSupportDetails fills SupportEmotions and Availability.
func loadSupportDetails(ctx context.Context, q querier, c *model.Creator) error {
	rows, err := q.QueryContext(ctx,
		`SELECT emotion FROM creator_emotions WHERE creator_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("sqlite: loading emotions of %s: %w", c.ID, err)
	}
	c.SupportEmotions = []model.Emotion{}
	for rows.Next() {
		var e model.Emotion
		if err := rows.Scan(&e); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning emotion: %w", err)
		}
		c.SupportEmotions = append(c.SupportEmotions, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: iterating emotions: %w", err)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx,
		`SELECT day, start_time, end_time FROM availability_windows WHERE creator_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("sqlite: loading availability of %s: %w", c.ID, err)
	}
	defer rows.Close()

	c.Availability = []model.AvailabilityWindow{}
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.Day, &w.StartTime, &w.EndTime); err != nil {
			return fmt.Errorf("sqlite: scanning availability window: %w", err)
		}
		c.Availability = append(c.Availability, w)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating availability: %w", err)
	}
	return nil
}

func replaceEmotions(ctx context.Context, tx *sql.Tx, creatorID string, emotions []model.Emotion) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM creator_emotions WHERE creator_id = ?`, creatorID); err != nil {
		return fmt.Errorf("sqlite: clearing emotions: %w", err)
	}
	for i, e := range emotions {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO creator_emotions (creator_id, emotion, position) VALUES (?, ?, ?)`,
			creatorID, string(e), i)
		if err != nil {
			return fmt.Errorf("sqlite: inserting emotion %s: %w", e, err)
		}
	}
	return nil
}

func replaceAvailability(ctx context.Context, tx *sql.Tx, creatorID string, windows []model.AvailabilityWindow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE creator_id = ?`, creatorID); err != nil {
		return fmt.Errorf("sqlite: clearing availability: %w", err)
	}
	for i, w := range windows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO availability_windows (creator_id, position, day, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
			creatorID, i, string(w.Day), w.StartTime, w.EndTime)
		if err != nil {
			return fmt.Errorf("sqlite: inserting availability window: %w", err)
		}
	}
	return nil
}

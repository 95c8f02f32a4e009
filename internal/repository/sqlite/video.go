package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

var _ repository.VideoRepository = (*DB)(nil)

func (db *DB) CreateVideo(ctx context.Context, v *model.Video) error {
	v.ID = xid.New().String()
	v.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, title, filename, file_path, uploader_id, views, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Filename, v.FilePath, v.UploaderID, v.Views, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video: %w", err)
	}
	return nil
}

const videoSelect = `SELECT v.id, v.title, v.filename, v.file_path, v.uploader_id, COALESCE(c.name, ''), v.views, v.created_at
	FROM videos v LEFT JOIN creators c ON c.id = v.uploader_id`

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	var v model.Video
	err := row.Scan(&v.ID, &v.Title, &v.Filename, &v.FilePath, &v.UploaderID, &v.UploaderName, &v.Views, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (db *DB) ListVideos(ctx context.Context) ([]model.Video, error) {
	rows, err := db.conn.QueryContext(ctx, videoSelect+` ORDER BY v.created_at DESC, v.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing videos: %w", err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning video row: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating videos: %w", err)
	}
	return videos, nil
}

func (db *DB) ViewVideo(ctx context.Context, id string) (*model.Video, error) {
	var v *model.Video

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: counting view of video %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n == 0 {
			return apperror.NotFound("video", id)
		}

		v, err = scanVideo(tx.QueryRowContext(ctx, videoSelect+` WHERE v.id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("video", id)
			}
			return fmt.Errorf("sqlite: getting video %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

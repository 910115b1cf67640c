package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dimitrije/jsoncrack-api/internal/database"
	"github.com/dimitrije/jsoncrack-api/internal/models"
)

const shareColumns = `slug, type, content, mode, is_private, access_type, password_hash, created_at, updated_at`

type PostgresStore struct {
	db *database.DB
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindOne(ctx context.Context, slug string) (*models.Share, error) {
	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+shareColumns+`
		FROM shares WHERE slug = $1
	`, slug)
	return scanShare(row)
}

func (s *PostgresStore) InsertUnique(ctx context.Context, share *models.Share) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO shares (`+shareColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, share.Slug, string(share.Type), share.Content, string(share.Mode), share.IsPrivate,
		string(share.AccessType), share.PasswordHash, share.CreatedAt, share.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

func (s *PostgresStore) ReplaceExpired(ctx context.Context, share *models.Share, cutoff time.Time) error {
	result, err := s.db.Pool.Exec(ctx, `
		INSERT INTO shares (`+shareColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			type = EXCLUDED.type,
			content = EXCLUDED.content,
			mode = EXCLUDED.mode,
			is_private = EXCLUDED.is_private,
			access_type = EXCLUDED.access_type,
			password_hash = EXCLUDED.password_hash,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		WHERE shares.created_at <= $10
	`, share.Slug, string(share.Type), share.Content, string(share.Mode), share.IsPrivate,
		string(share.AccessType), share.PasswordHash, share.CreatedAt, share.UpdatedAt, cutoff)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDuplicateSlug
	}
	return nil
}

func (s *PostgresStore) UpdateSet(ctx context.Context, slug string, update ShareUpdate) (*models.Share, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Type != nil {
		set("type", string(*update.Type))
	}
	if update.Content != nil {
		set("content", *update.Content)
	}
	if update.Mode != nil {
		set("mode", string(*update.Mode))
	}
	if update.IsPrivate != nil {
		set("is_private", *update.IsPrivate)
	}
	if update.AccessType != nil {
		set("access_type", string(*update.AccessType))
	}
	if update.ClearPassword {
		sets = append(sets, "password_hash = NULL")
	} else if update.PasswordHash != nil {
		set("password_hash", *update.PasswordHash)
	}
	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set("updated_at", updatedAt)

	args = append(args, slug)
	row := s.db.Pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE shares SET %s
		WHERE slug = $%d
		RETURNING `+shareColumns, strings.Join(sets, ", "), len(args)), args...)
	return scanShare(row)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM shares WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanShare(row pgx.Row) (*models.Share, error) {
	var share models.Share
	var shareType, mode, accessType string
	err := row.Scan(
		&share.Slug, &shareType, &share.Content, &mode, &share.IsPrivate,
		&accessType, &share.PasswordHash, &share.CreatedAt, &share.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	share.Type = models.ShareType(shareType)
	share.Mode = models.Mode(mode)
	share.AccessType = models.AccessType(accessType)
	return &share, nil
}

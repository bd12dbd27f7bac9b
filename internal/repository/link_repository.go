package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/link-shortener/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

const shortCodeConstraint = "links_short_code_key"

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
	RecordClick(ctx context.Context, id int64) (*models.Link, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error)
	Count(ctx context.Context) (int64, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, original_url, short_code, owner_id, created_at, click_count, last_clicked_at`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (original_url, short_code, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, click_count, last_clicked_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.OriginalURL,
		link.ShortCode,
		link.OwnerID,
	).Scan(&link.ID, &link.CreatedAt, &link.ClickCount, &link.LastClickedAt)

	if err != nil {
		if isUniqueViolation(err, shortCodeConstraint) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

// RecordClick увеличивает счётчик одним UPDATE, параллельные клики не теряются
func (r *linkRepository) RecordClick(ctx context.Context, id int64) (*models.Link, error) {
	query := `
		UPDATE links
		SET click_count = click_count + 1, last_clicked_at = NOW()
		WHERE id = $1
		RETURNING ` + linkColumns

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	return link, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return n, nil
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.OriginalURL,
		&link.ShortCode,
		&link.OwnerID,
		&link.CreatedAt,
		&link.ClickCount,
		&link.LastClickedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// isUniqueViolation срабатывает только на указанное ограничение,
// остальные нарушения остаются обычными ошибками
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

const (
	newsWithAuthor = `SELECT n.id, n.title, n.content, n.image, n.user_id, n.created_at, n.updated_at,
       u.name AS author_name, u.profile AS author_profile
FROM news n
JOIN users u ON u.id = n.user_id`

	listNews       = newsWithAuthor + ` ORDER BY n.id LIMIT $1 OFFSET $2`
	selectNewsByID = newsWithAuthor + ` WHERE n.id = $1`
	countNews      = `SELECT COUNT(*) FROM news`
	insertNews     = `INSERT INTO news (title, content, image, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	updateNews     = `UPDATE news SET title = $1, content = $2, image = $3, updated_at = $4 WHERE id = $5`
	deleteNews     = `DELETE FROM news WHERE id = $1`
)

type NewsRepository struct {
	db *sqlx.DB
}

func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// newsRow is one row of the news/users join.
type newsRow struct {
	ID            int64     `db:"id"`
	Title         string    `db:"title"`
	Content       string    `db:"content"`
	Image         string    `db:"image"`
	UserID        int64     `db:"user_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	AuthorName    string    `db:"author_name"`
	AuthorProfile string    `db:"author_profile"`
}

func (r newsRow) toDomain() domain.News {
	return domain.News{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Image:     r.Image,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Author: &domain.Author{
			ID:      r.UserID,
			Name:    r.AuthorName,
			Profile: r.AuthorProfile,
		},
	}
}

func (r *NewsRepository) List(ctx context.Context, offset, limit int) ([]domain.News, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var rows []newsRow
	if err := r.db.SelectContext(ctx, &rows, listNews, limit, offset); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}

	out := make([]domain.News, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *NewsRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.db.GetContext(ctx, &n, countNews); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

func (r *NewsRepository) FindByID(ctx context.Context, id int64) (*domain.News, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var row newsRow
	if err := r.db.GetContext(ctx, &row, selectNewsByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNewsNotFound
		}
		return nil, fmt.Errorf("find news: %w", err)
	}
	n := row.toDomain()
	return &n, nil
}

func (r *NewsRepository) Create(ctx context.Context, news *domain.News) (*domain.News, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	created := *news
	err := r.db.QueryRowxContext(ctx, insertNews,
		news.Title, news.Content, news.Image, news.UserID, news.CreatedAt, news.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("insert news: %w", err)
	}
	return &created, nil
}

func (r *NewsRepository) Update(ctx context.Context, news *domain.News) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, updateNews, news.Title, news.Content, news.Image, news.UpdatedAt, news.ID)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNewsNotFound
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, deleteNews, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNewsNotFound
	}
	return nil
}

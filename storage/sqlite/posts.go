package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/posts"
)

var _ posts.Repo = (*PostRepo)(nil)

type PostRepo struct {
	db *sql.DB
}

const postColumns = `id, slug, title, excerpt, cover_image, document_json, published, author_id, published_at, created_at, updated_at`

func (r *PostRepo) Upsert(ctx context.Context, p *posts.Post) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			title = excluded.title,
			excerpt = excluded.excerpt,
			cover_image = excluded.cover_image,
			document_json = excluded.document_json,
			published = excluded.published,
			author_id = excluded.author_id,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at`,
		p.ID, p.Slug, p.Title, p.Excerpt, p.CoverImage, p.Document.JSON(), boolToInt(p.Published), p.AuthorID,
		nullMillis(p.PublishedAt), toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return siteerrors.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}
	return nil
}

func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (*posts.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	return scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

func (r *PostRepo) List(ctx context.Context, opts posts.ListOptions) ([]*posts.Post, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + postColumns + ` FROM posts`)
	if opts.PublishedOnly {
		sb.WriteString(` WHERE published = 1`)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, sb.String(), limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	list := []*posts.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return siteerrors.ErrNotFound
	}
	return nil
}

func scanPost(row scanner) (*posts.Post, error) {
	var (
		p                  posts.Post
		docJSON            string
		published          int
		publishedAt        sql.NullInt64
		created, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.CoverImage, &docJSON, &published, &p.AuthorID,
		&publishedAt, &created, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	if err := json.Unmarshal([]byte(docJSON), &p.Document); err != nil {
		return nil, fmt.Errorf("decode post %s document: %w", p.ID, err)
	}
	p.Published = published != 0
	p.PublishedAt = fromNullMillis(publishedAt)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

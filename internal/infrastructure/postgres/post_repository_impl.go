package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

const postColumns = `p.id, p.title, p.author, p.body, p.tags, p.version, p.created_at, p.updated_at`

// PostRepository stores posts relationally; claps and comments live in child
// tables and are stitched back into the aggregate on read.
type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	if err := insertPost(ctx, r.db, p); err != nil {
		return err
	}
	p.Version = 1
	return nil
}

// CreateWithUniqueTitle serializes writers of the same lower-cased title on a
// transaction-scoped advisory lock, so the existence check sees every committed rival.
func (r *PostRepository) CreateWithUniqueTitle(ctx context.Context, p *entity.Post) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext(LOWER($1)))`, p.Title); err != nil {
		return fmt.Errorf("lock title: %w", err)
	}
	taken, err := titleTaken(ctx, tx, p.Title, "")
	if err != nil {
		return err
	}
	if taken {
		return repository.ErrTitleTaken
	}
	if err = insertPost(ctx, tx, p); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.Version = 1
	return nil
}

func insertPost(ctx context.Context, db DBTX, p *entity.Post) error {
	_, err := db.Exec(ctx, `
		INSERT INTO posts (id, title, author, body, tags, tags_text, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
	`, p.ID, p.Title, p.Author, p.Body, p.Tags, strings.Join(p.Tags, " "), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachChildren(ctx, []*entity.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the existing posts among ids, in the order of ids.
func (r *PostRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return []*entity.Post{}, nil
	}
	posts, err := r.query(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(posts, func(p *entity.Post) string { return p.ID })
	return lo.FilterMap(ids, func(id string, _ int) (*entity.Post, bool) {
		p, ok := byID[id]
		return p, ok
	}), nil
}

func (r *PostRepository) TitleTaken(ctx context.Context, title, excludeID string) (bool, error) {
	return titleTaken(ctx, r.db, title, excludeID)
}

func titleTaken(ctx context.Context, db DBTX, title, excludeID string) (bool, error) {
	var taken bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE LOWER(title) = LOWER($1) AND id <> $2)
	`, title, excludeID).Scan(&taken)
	return taken, err
}

func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	var version int64
	err := r.db.QueryRow(ctx, `
		UPDATE posts SET title = $2, body = $3, tags = $4, tags_text = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING version
	`, p.ID, p.Title, p.Body, p.Tags, strings.Join(p.Tags, " "), p.UpdatedAt, p.Version).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	p.Version = version
	return nil
}

// Delete removes the post; claps and comments go with it through ON DELETE CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List filters by author, clapper and text. Text matches are ordered by weighted
// rank; everything else newest first.
func (r *PostRepository) List(ctx context.Context, q repository.PostQuery) ([]*entity.Post, error) {
	query, args := buildListQuery(q)
	return r.query(ctx, query, args...)
}

func buildListQuery(q repository.PostQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.Author != "" {
		where = append(where, "p.author = "+arg(q.Author))
	}
	if q.ClappedBy != "" {
		where = append(where, "EXISTS (SELECT 1 FROM post_claps c WHERE c.post_id = p.id AND c.user_id = "+arg(q.ClappedBy)+" AND c.amount > 0)")
	}
	order := "p.created_at DESC"
	if q.Text != "" {
		tsq := "websearch_to_tsquery('simple', " + arg(q.Text) + ")"
		where = append(where, "p.search @@ "+tsq)
		order = "ts_rank(p.search, " + tsq + ") DESC, p.created_at DESC"
	}

	var b strings.Builder
	b.WriteString("SELECT " + postColumns + " FROM posts p")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + order)
	b.WriteString(" OFFSET " + arg(q.Offset))
	b.WriteString(" LIMIT " + arg(q.Limit))
	return b.String(), args
}

func (r *PostRepository) query(ctx context.Context, query string, args ...any) ([]*entity.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*entity.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) attachChildren(ctx context.Context, posts []*entity.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := lo.KeyBy(posts, func(p *entity.Post) string { return p.ID })
	ids := lo.Keys(byID)

	rows, err := r.db.Query(ctx, `SELECT post_id, user_id, amount FROM post_claps WHERE post_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			postID string
			c      entity.Clap
		)
		if err := rows.Scan(&postID, &c.UserID, &c.Amount); err != nil {
			rows.Close()
			return err
		}
		byID[postID].Claps = append(byID[postID].Claps, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
		SELECT id, post_id, author, body, created_at FROM comments
		WHERE post_id = ANY($1)
		ORDER BY seq
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c entity.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return err
		}
		byID[c.PostID].Comments = append(byID[c.PostID].Comments, c)
	}
	return rows.Err()
}

// AddClaps applies delta to the (post, user) entry in one statement, clamping the
// result to [0, ceiling]. A missing entry starts from zero.
func (r *PostRepository) AddClaps(ctx context.Context, postID, userID string, delta, ceiling int) (int, error) {
	var amount int
	err := r.db.QueryRow(ctx, `
		INSERT INTO post_claps (post_id, user_id, amount)
		VALUES ($1, $2, LEAST(GREATEST($3::int, 0), $4::int))
		ON CONFLICT (post_id, user_id)
		DO UPDATE SET amount = LEAST(GREATEST(post_claps.amount + $3::int, 0), $4::int)
		RETURNING amount
	`, postID, userID, delta, ceiling).Scan(&amount)
	if pgCode(err) == codeForeignKeyViolation {
		return 0, repository.ErrNotFound
	}
	return amount, err
}

func (r *PostRepository) AddComment(ctx context.Context, c entity.Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO comments (id, post_id, author, body, created_at) VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.PostID, c.Author, c.Body, c.CreatedAt)
	if pgCode(err) == codeForeignKeyViolation {
		return repository.ErrNotFound
	}
	return err
}

func (r *PostRepository) UpdateCommentBody(ctx context.Context, postID, commentID, body string) error {
	tag, err := r.db.Exec(ctx, `UPDATE comments SET body = $3 WHERE post_id = $1 AND id = $2`, postID, commentID, body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) RemoveComment(ctx context.Context, postID, commentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE post_id = $1 AND id = $2`, postID, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*entity.Post, error) {
	p := entity.Post{Claps: []entity.Clap{}, Comments: []entity.Comment{}}
	if err := row.Scan(&p.ID, &p.Title, &p.Author, &p.Body, &p.Tags, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

var _ repository.PostRepository = (*PostRepository)(nil)

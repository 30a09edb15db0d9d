package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/utils/databaseutils"
	"github.com/siahsang/articles/models"
)

const (
	uniqueViolation    = "23505"
	slugUniqueKey      = "articles_slug_key"
	foreignKeyViolated = "23503"
)

const articleColumns = `a.id, a.title, a.slug, a.content, a.excerpt, a.status, a.featured, a.view_count, a.tags,
	a.created_at, a.updated_at, a.published_at, u.id, u.username, u.first_name, u.last_name`

const articleJoin = `JOIN users u ON u.id = a.author_id`

type PostgresStore struct {
	log         *slog.Logger
	db          *sql.DB
	session     databaseutils.Session
	sqlTemplate *databaseutils.SQLTemplate
}

func NewPostgresStore(db *sql.DB, log *slog.Logger, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		log:         log,
		db:          db,
		session:     databaseutils.NewSession(db, log),
		sqlTemplate: databaseutils.NewSQLTemplate(db, queryTimeout),
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.session.DoTransactionally(ctx, fn)
}

func scanUser(rows *sql.Rows) (*models.User, error) {
	var user = &models.User{}
	if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.IsStaff); err != nil {
		return nil, xerrors.New(err)
	}
	return user, nil
}

func (s *PostgresStore) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, first_name, last_name, is_staff)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, email, first_name, last_name, is_staff
	`
	created, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanUser,
		user.Username, user.Email, user.FirstName, user.LastName, user.IsStaff)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, is_staff
		FROM users
		WHERE username = $1
	`
	user, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanUser, username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(ErrNoRecordFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return user, nil
}

func scanArticle(rows *sql.Rows) (*models.Article, error) {
	var (
		article     = &models.Article{}
		status      string
		publishedAt sql.NullTime
	)
	if err := rows.Scan(
		&article.ID,
		&article.Title,
		&article.Slug,
		&article.Content,
		&article.Excerpt,
		&status,
		&article.Featured,
		&article.ViewCount,
		&article.Tags,
		&article.CreatedAt,
		&article.UpdatedAt,
		&publishedAt,
		&article.Author.ID,
		&article.Author.Username,
		&article.Author.FirstName,
		&article.Author.LastName,
	); err != nil {
		return nil, xerrors.New(err)
	}
	article.Status = models.Status(status)
	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	return article, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *PostgresStore) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	query := `SELECT slug FROM articles WHERE slug = $1 OR slug LIKE $2`
	slugs, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (string, error) {
		var slug string
		err := rows.Scan(&slug)
		return slug, err
	}, base, filter.PrefixPattern(base+"-"))
	if err != nil {
		return nil, xerrors.New(err)
	}
	return slugs, nil
}

func (s *PostgresStore) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE lower(title) = lower($1) AND id <> $2)`
	exists, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (bool, error) {
		var exists bool
		err := rows.Scan(&exists)
		return exists, err
	}, title, excludeID)
	if err != nil {
		return false, xerrors.New(err)
	}
	return exists, nil
}

// InsertArticle reports ErrDuplicatedSlug when the slug unique constraint
// rejects the row, so callers can pick another candidate and retry.
func (s *PostgresStore) InsertArticle(ctx context.Context, article *models.Article) (*models.Article, error) {
	query := fmt.Sprintf(`
		WITH a AS (
			INSERT INTO articles (title, slug, content, excerpt, author_id, status, featured, view_count, tags,
			                      created_at, updated_at, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT %s FROM a %s
	`, articleColumns, articleJoin)

	created, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanArticle,
		article.Title, article.Slug, article.Content, article.Excerpt, article.Author.ID, string(article.Status),
		article.Featured, article.ViewCount, article.Tags, article.CreatedAt, article.UpdatedAt, nullTime(article.PublishedAt))
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == slugUniqueKey:
			return nil, xerrors.New(ErrDuplicatedSlug)
		case errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolated:
			return nil, xerrors.New(ErrUnknownAuthor)
		default:
			return nil, xerrors.New(err)
		}
	}
	return created, nil
}

// GetArticle locks the row when called inside a transaction.
func (s *PostgresStore) GetArticle(ctx context.Context, id int64, visibility filter.Visibility) (*models.Article, error) {
	c := &filter.Conditions{}
	c.Add("a.id = ?", id)
	visibility.AppendSQL(c)

	query := fmt.Sprintf(`SELECT %s FROM articles a %s %s`, articleColumns, articleJoin, c.Where())
	if databaseutils.InTransaction(ctx) {
		query += " FOR UPDATE OF a"
	}

	article, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanArticle, c.Args()...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(ErrNoRecordFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return article, nil
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, article *models.Article) (*models.Article, error) {
	query := fmt.Sprintf(`
		WITH a AS (
			UPDATE articles
			SET title = $1, content = $2, excerpt = $3, status = $4, tags = $5, updated_at = $6, published_at = $7
			WHERE id = $8
			RETURNING *
		)
		SELECT %s FROM a %s
	`, articleColumns, articleJoin)

	updated, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanArticle,
		article.Title, article.Content, article.Excerpt, string(article.Status), article.Tags, article.UpdatedAt,
		nullTime(article.PublishedAt), article.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(ErrNoRecordFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return updated, nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id int64) error {
	affected, err := databaseutils.Execute(s.sqlTemplate, ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return xerrors.New(err)
	}
	if affected == 0 {
		return xerrors.New(ErrNoRecordFound)
	}
	return nil
}

// IncrementViewCount is a single UPDATE so concurrent readers never lose
// increments.
func (s *PostgresStore) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE articles SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`
	viewCount, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (int64, error) {
		var viewCount int64
		err := rows.Scan(&viewCount)
		return viewCount, err
	}, id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, xerrors.New(ErrNoRecordFound)
		default:
			return 0, xerrors.New(err)
		}
	}
	return viewCount, nil
}

func (s *PostgresStore) ToggleFeatured(ctx context.Context, id int64, updatedAt time.Time) (*models.Article, error) {
	query := fmt.Sprintf(`
		WITH a AS (
			UPDATE articles SET featured = NOT featured, updated_at = $1
			WHERE id = $2
			RETURNING *
		)
		SELECT %s FROM a %s
	`, articleColumns, articleJoin)

	article, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanArticle, updatedAt, id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, xerrors.New(ErrNoRecordFound)
		default:
			return nil, xerrors.New(err)
		}
	}
	return article, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, query filter.Query) ([]*models.Article, int64, error) {
	c := query.Conditions()

	countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM articles a %s %s`, articleJoin, c.Where())
	total, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, countSQL, func(rows *sql.Rows) (int64, error) {
		var total int64
		err := rows.Scan(&total)
		return total, err
	}, c.Args()...)
	if err != nil {
		return nil, 0, xerrors.New(err)
	}

	args := c.Args()
	listSQL := fmt.Sprintf(`SELECT %s FROM articles a %s %s %s`, articleColumns, articleJoin, c.Where(), query.Ordering.SQL())
	if query.Page.Limit > 0 {
		listSQL += fmt.Sprintf(" LIMIT %s OFFSET %s", c.Placeholder(0), c.Placeholder(1))
		args = append(args, query.Page.Limit, query.Page.Offset)
	}

	articles, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, listSQL, scanArticle, args...)
	if err != nil {
		return nil, 0, xerrors.New(err)
	}
	return articles, total, nil
}

func (s *PostgresStore) Stats(ctx context.Context, visibility filter.Visibility, viewerID int64) (*models.Stats, error) {
	c := &filter.Conditions{}
	visibility.AppendSQL(c)
	viewer := c.Placeholder(0)
	args := append(c.Args(), viewerID)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE a.status = 'published'),
			COUNT(*) FILTER (WHERE a.status = 'draft'),
			COUNT(*) FILTER (WHERE a.featured),
			COALESCE(SUM(a.view_count), 0)::bigint,
			COUNT(*) FILTER (WHERE a.author_id = %[1]s),
			COUNT(*) FILTER (WHERE a.author_id = %[1]s AND a.status = 'published'),
			COUNT(*) FILTER (WHERE a.author_id = %[1]s AND a.status = 'draft')
		FROM articles a %[2]s
	`, viewer, c.Where())

	stats, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (*models.Stats, error) {
		stats := &models.Stats{}
		var mine, myPublished, myDrafts int64
		if err := rows.Scan(
			&stats.TotalArticles,
			&stats.PublishedArticles,
			&stats.DraftArticles,
			&stats.FeaturedArticles,
			&stats.TotalViews,
			&mine,
			&myPublished,
			&myDrafts,
		); err != nil {
			return nil, err
		}
		if viewerID != 0 {
			stats.MyArticles = &mine
			stats.MyPublished = &myPublished
			stats.MyDrafts = &myDrafts
		}
		return stats, nil
	}, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return stats, nil
}

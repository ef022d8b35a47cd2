package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

const bookColumns = `id, title, author, isbn, published_at, genre, state, version, created_at, updated_at`

type bookRepository struct {
	db *sql.DB
}

// NewBookRepository создаёт PostgreSQL-реализацию BookRepository.
func NewBookRepository(store *Store) domain.BookRepository {
	return &bookRepository{db: store.DB()}
}

func (r *bookRepository) Create(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (
			id, title, author, isbn, published_at, genre, state, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		book.ID, book.Title, book.Author, book.ISBN, book.PublishedAt,
		book.Genre, string(book.State), book.Version, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "isbn") {
				return domain.ErrDuplicateISBN
			}
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

func (r *bookRepository) Get(id string) (domain.Book, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = $1
	`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("select book: %w", err)
	}

	return book, nil
}

func (r *bookRepository) List(limit int) ([]domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.queryBooks(query+" LIMIT $1", limit)
	}
	return r.queryBooks(query)
}

func (r *bookRepository) ListByState(state domain.BookState) ([]domain.Book, error) {
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE state = $1
		ORDER BY created_at DESC, id DESC
	`, string(state))
}

func (r *bookRepository) Search(text string) ([]domain.Book, error) {
	pattern := "%" + text + "%"
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE title ILIKE $1 OR author ILIKE $1
		ORDER BY created_at DESC, id DESC
	`, pattern)
}

func (r *bookRepository) ListByGenre(genre string) ([]domain.Book, error) {
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE genre ILIKE $1
		ORDER BY created_at DESC, id DESC
	`, "%"+genre+"%")
}

func (r *bookRepository) Save(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1,
		    author = $2,
		    isbn = $3,
		    published_at = $4,
		    genre = $5,
		    state = $6,
		    version = version + 1,
		    updated_at = $7
		WHERE id = $8
		  AND version = $9
	`,
		book.Title, book.Author, book.ISBN, book.PublishedAt, book.Genre,
		string(book.State), book.UpdatedAt, book.ID, book.Version,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && strings.Contains(constraint, "isbn") {
			return domain.ErrDuplicateISBN
		}
		return fmt.Errorf("update book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.bookExists(ctx, book.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrBookNotFound
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func (r *bookRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

func (r *bookRepository) queryBooks(query string, args ...any) ([]domain.Book, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}

	return books, nil
}

func (r *bookRepository) bookExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check book exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (domain.Book, error) {
	var (
		book  domain.Book
		state string
	)
	if err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.ISBN, &book.PublishedAt,
		&book.Genre, &state, &book.Version, &book.CreatedAt, &book.UpdatedAt,
	); err != nil {
		return domain.Book{}, err
	}
	book.State = domain.BookState(state)
	return book, nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

var _ domain.BookRepository = (*bookRepository)(nil)

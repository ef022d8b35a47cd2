package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

const bookColumns = `id, title, author, isbn, published_at, genre, state, version, created_at, updated_at`

type bookRepository struct {
	db *sql.DB
}

// NewBookRepository создаёт SQLite-реализацию BookRepository.
func NewBookRepository(store *Store) domain.BookRepository {
	return &bookRepository{db: store.DB()}
}

func (r *bookRepository) Create(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (
			id, title, author, isbn, published_at, genre, state, version, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)
	`,
		book.ID, book.Title, book.Author, book.ISBN, book.PublishedAt,
		book.Genre, string(book.State), book.Version, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if msg, ok := constraintViolation(err); ok {
			if strings.Contains(msg, "isbn") {
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
		WHERE id = ?
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
		return r.queryBooks(query+" LIMIT ?", limit)
	}
	return r.queryBooks(query)
}

func (r *bookRepository) ListByState(state domain.BookState) ([]domain.Book, error) {
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE state = ?
		ORDER BY created_at DESC, id DESC
	`, string(state))
}

func (r *bookRepository) Search(text string) ([]domain.Book, error) {
	pattern := "%" + strings.ToLower(text) + "%"
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE LOWER(title) LIKE ? OR LOWER(author) LIKE ?
		ORDER BY created_at DESC, id DESC
	`, pattern, pattern)
}

func (r *bookRepository) ListByGenre(genre string) ([]domain.Book, error) {
	return r.queryBooks(`
		SELECT `+bookColumns+`
		FROM books
		WHERE LOWER(genre) LIKE ?
		ORDER BY created_at DESC, id DESC
	`, "%"+strings.ToLower(genre)+"%")
}

func (r *bookRepository) Save(book domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = ?,
		    author = ?,
		    isbn = ?,
		    published_at = ?,
		    genre = ?,
		    state = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ?
		  AND version = ?
	`,
		book.Title, book.Author, book.ISBN, book.PublishedAt, book.Genre,
		string(book.State), book.UpdatedAt, book.ID, book.Version,
	)
	if err != nil {
		if msg, ok := constraintViolation(err); ok && strings.Contains(msg, "isbn") {
			return domain.ErrDuplicateISBN
		}
		return fmt.Errorf("update book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := rowExists(ctx, r.db, "books", book.ID)
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

	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
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

func rowExists(ctx context.Context, db *sql.DB, table, id string) (bool, error) {
	var found string
	err := db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE id = ?`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check %s exists: %w", table, err)
}

func constraintViolation(err error) (string, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return strings.ToLower(sqliteErr.Error()), true
	}
	return "", false
}

var _ domain.BookRepository = (*bookRepository)(nil)

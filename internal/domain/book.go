package domain

import "time"

// BookState описывает состояние экземпляра книги в фонде библиотеки.
type BookState string

const (
	// BookStateAvailable — книга в фонде и может быть выдана.
	BookStateAvailable BookState = "available"
	// BookStateLoaned — книга выдана читателю; повторная выдача невозможна.
	BookStateLoaned BookState = "loaned"
)

// Book представляет один физический экземпляр книги.
// Поле State меняется только оркестратором выдач, никогда напрямую из CRUD.
type Book struct {
	ID          string
	Title       string
	Author      string
	ISBN        string
	PublishedAt time.Time
	Genre       string
	State       BookState
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateInvariants проверяет описательные поля книги и возвращает список замечаний.
func (b *Book) ValidateInvariants() []error {
	var errs []error

	if b.Title == "" {
		errs = append(errs, ErrBookTitleRequired)
	}
	if b.Author == "" {
		errs = append(errs, ErrBookAuthorRequired)
	}
	if b.ISBN == "" {
		errs = append(errs, ErrBookISBNRequired)
	}
	if b.Genre == "" {
		errs = append(errs, ErrBookGenreRequired)
	}

	return errs
}

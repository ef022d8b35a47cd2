package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// ValidationError агрегирует замечания к описательным полям записи.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	return errors.Join(e.Errs...).Error()
}

// NewBook описывает входные данные регистрации книги.
// Состояние в этой структуре отсутствует намеренно: его назначает сервис.
type NewBook struct {
	Title       string
	Author      string
	ISBN        string
	PublishedAt time.Time
	Genre       string
}

// Service реализует CRUD каталога книг.
// Поле State книги этот сервис не пишет никогда: создание фиксирует
// начальное состояние, обновление переносит текущее, удаление при
// активной выдаче отклоняется.
type Service struct {
	books  domain.BookRepository
	logger *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(books domain.BookRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{books: books, logger: logger}
}

// Create регистрирует книгу в каталоге в состоянии "available".
func (s *Service) Create(input NewBook) (domain.Book, error) {
	now := time.Now().UTC()
	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Author:      input.Author,
		ISBN:        input.ISBN,
		PublishedAt: input.PublishedAt,
		Genre:       input.Genre,
		State:       domain.BookStateAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if errs := book.ValidateInvariants(); len(errs) > 0 {
		return domain.Book{}, &ValidationError{Errs: errs}
	}
	if err := s.books.Create(book); err != nil {
		s.logger.WithError(err).WithField("isbn", book.ISBN).Warn("book registration failed")
		return domain.Book{}, err
	}

	s.logger.WithFields(log.Fields{
		"book_id": book.ID,
		"isbn":    book.ISBN,
	}).Info("book registered")
	return book, nil
}

// Get возвращает книгу по идентификатору.
func (s *Service) Get(id string) (domain.Book, error) {
	return s.books.Get(id)
}

// List возвращает книги каталога.
func (s *Service) List(limit int) ([]domain.Book, error) {
	return s.books.List(limit)
}

// Update заменяет описательные поля книги. Состояние и версия берутся
// из текущей записи, что бы ни прислал вызывающий.
func (s *Service) Update(id string, input NewBook) (domain.Book, error) {
	current, err := s.books.Get(id)
	if err != nil {
		return domain.Book{}, err
	}

	updated := current
	updated.Title = input.Title
	updated.Author = input.Author
	updated.ISBN = input.ISBN
	updated.PublishedAt = input.PublishedAt
	updated.Genre = input.Genre
	updated.UpdatedAt = time.Now().UTC()

	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return domain.Book{}, &ValidationError{Errs: errs}
	}
	if err := s.books.Save(updated); err != nil {
		return domain.Book{}, err
	}

	updated.Version++
	return updated, nil
}

// Delete удаляет книгу. Книга с активной выдачей не удаляется.
func (s *Service) Delete(id string) (domain.Book, error) {
	book, err := s.books.Get(id)
	if err != nil {
		return domain.Book{}, err
	}
	if book.State == domain.BookStateLoaned {
		return domain.Book{}, domain.ErrBookOnLoan
	}
	if err := s.books.Delete(id); err != nil {
		return domain.Book{}, err
	}

	s.logger.WithField("book_id", id).Info("book removed from catalog")
	return book, nil
}

// Search ищет книги по подстроке автора или названия.
func (s *Service) Search(text string) ([]domain.Book, error) {
	return s.books.Search(text)
}

// ListAvailable возвращает книги, доступные к выдаче.
func (s *Service) ListAvailable() ([]domain.Book, error) {
	return s.books.ListByState(domain.BookStateAvailable)
}

// ListLoaned возвращает книги на руках у читателей.
func (s *Service) ListLoaned() ([]domain.Book, error) {
	return s.books.ListByState(domain.BookStateLoaned)
}

// ListByGenre возвращает книги по жанру.
func (s *Service) ListByGenre(genre string) ([]domain.Book, error) {
	return s.books.ListByGenre(genre)
}

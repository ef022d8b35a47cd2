package memory

import (
	"sort"
	"strings"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// bookRepositoryInMemory — реализация BookRepository поверх общего Store.
type bookRepositoryInMemory struct {
	store *Store
}

// Create сохраняет новую книгу, если ID и ISBN ещё не заняты.
func (r *bookRepositoryInMemory) Create(book domain.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.books[book.ID]; exists {
		return domain.ErrVersionConflict
	}
	for _, existing := range r.store.books {
		if existing.ISBN == book.ISBN {
			return domain.ErrDuplicateISBN
		}
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.store.books[book.ID] = book
	return nil
}

// Get возвращает книгу или ErrBookNotFound, если её нет.
func (r *bookRepositoryInMemory) Get(id string) (domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	book, ok := r.store.books[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return book, nil
}

// List возвращает книги каталога, ограничивая выборку limit (если >0).
func (r *bookRepositoryInMemory) List(limit int) ([]domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Book, 0, len(r.store.books))
	for _, book := range r.store.books {
		result = append(result, book)
	}
	sortBooks(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByState возвращает книги в заданном состоянии.
func (r *bookRepositoryInMemory) ListByState(state domain.BookState) ([]domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Book, 0)
	for _, book := range r.store.books {
		if book.State == state {
			result = append(result, book)
		}
	}
	sortBooks(result)
	return result, nil
}

// Search ищет книги по подстроке автора или названия без учёта регистра.
func (r *bookRepositoryInMemory) Search(text string) ([]domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(text)
	result := make([]domain.Book, 0)
	for _, book := range r.store.books {
		if strings.Contains(strings.ToLower(book.Author), needle) ||
			strings.Contains(strings.ToLower(book.Title), needle) {
			result = append(result, book)
		}
	}
	sortBooks(result)
	return result, nil
}

// ListByGenre возвращает книги по подстроке жанра без учёта регистра.
func (r *bookRepositoryInMemory) ListByGenre(genre string) ([]domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(genre)
	result := make([]domain.Book, 0)
	for _, book := range r.store.books {
		if strings.Contains(strings.ToLower(book.Genre), needle) {
			result = append(result, book)
		}
	}
	sortBooks(result)
	return result, nil
}

// Save перезаписывает книгу, проверяя версию (optimistic locking).
func (r *bookRepositoryInMemory) Save(book domain.Book) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.books[book.ID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if current.Version != book.Version {
		return domain.ErrVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	book.Version++
	r.store.books[book.ID] = book
	return nil
}

// Delete удаляет книгу или возвращает ErrBookNotFound.
func (r *bookRepositoryInMemory) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.store.books, id)
	return nil
}

func sortBooks(books []domain.Book) {
	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.After(books[j].CreatedAt)
		}
		return books[i].ID > books[j].ID
	})
}

var _ domain.BookRepository = (*bookRepositoryInMemory)(nil)

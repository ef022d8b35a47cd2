package memory

import (
	"sync"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// Store объединяет книги, читателей и выдачи под одной блокировкой,
// чтобы SaveAtomic охватывал все три вида записей как одну операцию.
// Используется для локальной разработки и тестов.
type Store struct {
	mu    sync.RWMutex
	books map[string]domain.Book
	users map[string]domain.User
	loans map[string]domain.Loan
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		books: make(map[string]domain.Book),
		users: make(map[string]domain.User),
		loans: make(map[string]domain.Loan),
	}
}

// Books возвращает репозиторий книг поверх общего хранилища.
func (s *Store) Books() domain.BookRepository {
	return &bookRepositoryInMemory{store: s}
}

// Users возвращает репозиторий читателей поверх общего хранилища.
func (s *Store) Users() domain.UserRepository {
	return &userRepositoryInMemory{store: s}
}

// Loans возвращает репозиторий выдач поверх общего хранилища.
func (s *Store) Loans() domain.LoanRepository {
	return &loanRepositoryInMemory{store: s}
}

// SaveAtomic применяет набор изменений целиком либо не применяет вовсе.
// Сначала проверяются версии всех записей набора, и только потом — запись.
func (s *Store) SaveAtomic(cs domain.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs.Book != nil {
		current, ok := s.books[cs.Book.ID]
		if !ok {
			return domain.ErrBookNotFound
		}
		if current.Version != cs.Book.Version {
			return domain.ErrVersionConflict
		}
	}
	if cs.User != nil {
		current, ok := s.users[cs.User.ID]
		if !ok {
			return domain.ErrUserNotFound
		}
		if current.Version != cs.User.Version {
			return domain.ErrVersionConflict
		}
	}
	var loanExists bool
	if cs.Loan != nil {
		current, ok := s.loans[cs.Loan.ID]
		loanExists = ok
		if ok && current.Version != cs.Loan.Version {
			return domain.ErrVersionConflict
		}
	}

	// Все проверки прошли, применяем копии.
	if cs.Book != nil {
		book := *cs.Book
		book.Version++
		s.books[book.ID] = book
	}
	if cs.User != nil {
		user := *cs.User
		user.Version++
		s.users[user.ID] = user
	}
	if cs.Loan != nil {
		loan := *cs.Loan
		if loanExists {
			loan.Version++
		}
		s.loans[loan.ID] = loan
	}

	return nil
}

var _ domain.AtomicStore = (*Store)(nil)

package domain

// BookRepository описывает требования к хранилищу книг.
type BookRepository interface {
	// Create сохраняет новую книгу. Возвращает ErrVersionConflict, если ID уже занят,
	// и ErrDuplicateISBN при повторном ISBN.
	Create(book Book) error
	// Get возвращает книгу по идентификатору или ErrBookNotFound, если её нет.
	Get(id string) (Book, error)
	// List возвращает книги каталога с опциональным ограничением на количество.
	List(limit int) ([]Book, error)
	// ListByState возвращает книги в заданном состоянии.
	ListByState(state BookState) ([]Book, error)
	// Search ищет книги по подстроке автора или названия без учёта регистра.
	Search(text string) ([]Book, error)
	// ListByGenre возвращает книги по подстроке жанра без учёта регистра.
	ListByGenre(genre string) ([]Book, error)
	// Save применяет обновления к книге с учётом optimistic locking.
	Save(book Book) error
	// Delete удаляет книгу или возвращает ErrBookNotFound.
	Delete(id string) error
}

// UserRepository описывает требования к хранилищу читателей.
type UserRepository interface {
	Create(user User) error
	Get(id string) (User, error)
	List(limit int) ([]User, error)
	ListByState(state UserState) ([]User, error)
	// Search ищет читателей по подстроке имени или фамилии без учёта регистра.
	Search(text string) ([]User, error)
	Save(user User) error
	Delete(id string) error
}

// LoanRepository описывает требования к хранилищу выдач.
// Новые выдачи создаются только через AtomicStore.SaveAtomic.
type LoanRepository interface {
	Get(id string) (Loan, error)
	List(limit int) ([]Loan, error)
	ListByState(state LoanState) ([]Loan, error)
	Delete(id string) error
}

// ChangeSet задаёт точный набор записей, которые должны быть сохранены вместе.
// nil-поле означает "не трогать". Loan без версии (Version == 0 и пустой ID
// отсутствует в хранилище) вставляется, остальные записи обновляются.
type ChangeSet struct {
	Book *Book
	User *User
	Loan *Loan
}

// AtomicStore сохраняет набор записей как одну неделимую операцию.
// Либо применяются все изменения набора, либо ни одно; частичная запись
// не должна быть наблюдаема другими читателями. При устаревшей версии
// любой из записей возвращается ErrVersionConflict и ничего не применяется.
type AtomicStore interface {
	SaveAtomic(cs ChangeSet) error
}

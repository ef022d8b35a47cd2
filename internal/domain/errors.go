package domain

import "errors"

var (
	// Ошибка отсутствующего названия книги.
	ErrBookTitleRequired = errors.New("book title is required")
	// Ошибка отсутствующего автора книги.
	ErrBookAuthorRequired = errors.New("book author is required")
	// Ошибка отсутствующего ISBN.
	ErrBookISBNRequired = errors.New("book isbn is required")
	// Ошибка отсутствующего жанра.
	ErrBookGenreRequired = errors.New("book genre is required")
	// Ошибка отсутствующего имени читателя.
	ErrUserNameRequired = errors.New("user name is required")
	// Ошибка отсутствующей фамилии читателя.
	ErrUserLastNameRequired = errors.New("user last name is required")
	// Ошибка отсутствующего email читателя.
	ErrUserEmailRequired = errors.New("user email is required")
	// Ошибка отсутствующего адреса читателя.
	ErrUserAddressRequired = errors.New("user address is required")

	// ErrBookNotFound возвращается, если книга не найдена в репозитории.
	ErrBookNotFound = errors.New("book not found")
	// ErrUserNotFound возвращается, если читатель не найден в репозитории.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoanNotFound возвращается, если выдача не найдена в репозитории.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrBookAlreadyBorrowed — книга уже выдана другому читателю.
	ErrBookAlreadyBorrowed = errors.New("book is already borrowed")
	// ErrUserAlreadyHasLoan — читатель уже держит активную выдачу.
	ErrUserAlreadyHasLoan = errors.New("user already has an active loan")
	// ErrLoanAlreadyReturned — выдача уже закрыта, повторный возврат невозможен.
	ErrLoanAlreadyReturned = errors.New("loan is already returned")

	// ErrBookOnLoan — книгу с активной выдачей нельзя удалить.
	ErrBookOnLoan = errors.New("book has an active loan")
	// ErrUserHasLoan — читателя с активной выдачей нельзя удалить.
	ErrUserHasLoan = errors.New("user has an active loan")
	// ErrDuplicateISBN — ISBN уже зарегистрирован в каталоге.
	ErrDuplicateISBN = errors.New("book isbn already registered")

	// ErrVersionConflict сигнализирует о конкурентном изменении записи при сохранении.
	ErrVersionConflict = errors.New("record version conflict")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
// Такой вызов безопасно повторить: предусловия перепроверяются заново.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLoanNotFound)
}

// IsInvalidTransition проверяет, является ли ошибка отказом машины состояний.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrBookAlreadyBorrowed) ||
		errors.Is(err, ErrUserAlreadyHasLoan) ||
		errors.Is(err, ErrLoanAlreadyReturned)
}

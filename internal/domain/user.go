package domain

import "time"

// UserState описывает, держит ли читатель активную выдачу.
type UserState string

const (
	// UserStateWithoutLoan — читатель свободен и может взять книгу.
	UserStateWithoutLoan UserState = "without_loan"
	// UserStateWithLoan — у читателя есть активная выдача; новая не допускается.
	UserStateWithLoan UserState = "with_loan"
)

// User представляет читателя библиотеки.
// Поле State меняется только оркестратором выдач.
type User struct {
	ID           string
	Name         string
	LastName     string
	Email        string
	Phone        string
	Address      string
	RegisteredAt time.Time
	State        UserState
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateInvariants проверяет описательные поля читателя и возвращает список замечаний.
func (u *User) ValidateInvariants() []error {
	var errs []error

	if u.Name == "" {
		errs = append(errs, ErrUserNameRequired)
	}
	if u.LastName == "" {
		errs = append(errs, ErrUserLastNameRequired)
	}
	if u.Email == "" {
		errs = append(errs, ErrUserEmailRequired)
	}
	if u.Address == "" {
		errs = append(errs, ErrUserAddressRequired)
	}

	return errs
}

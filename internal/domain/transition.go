package domain

import "time"

// Чистая машина состояний выдачи: ни одна функция в этом файле не делает I/O
// и не мутирует аргументы. Оркестратор вызывает Can*, затем Apply* и сохраняет
// результат одной атомарной записью.

// CanCreateLoan решает, допустима ли выдача книги читателю.
// Возвращает nil либо конкретную причину отказа.
func CanCreateLoan(book Book, user User) error {
	if book.State != BookStateAvailable {
		return ErrBookAlreadyBorrowed
	}
	if user.State != UserStateWithoutLoan {
		return ErrUserAlreadyHasLoan
	}
	return nil
}

// CanReturnLoan решает, допустим ли возврат по выдаче.
func CanReturnLoan(loan Loan) error {
	if loan.State != LoanStateActive {
		return ErrLoanAlreadyReturned
	}
	return nil
}

// ApplyCreate вычисляет согласованные состояния книги, читателя и новой выдачи.
// Идентификатор выдачи назначает вызывающая сторона.
func ApplyCreate(book Book, user User, now time.Time) (Book, User, Loan) {
	book.State = BookStateLoaned
	book.UpdatedAt = now

	user.State = UserStateWithLoan
	user.UpdatedAt = now

	loan := Loan{
		BookID:    book.ID,
		UserID:    user.ID,
		LoanDate:  now,
		State:     LoanStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return book, user, loan
}

// ApplyReturn вычисляет согласованные состояния после возврата книги.
func ApplyReturn(loan Loan, book Book, user User, now time.Time) (Loan, Book, User) {
	loan.State = LoanStateNotActive
	loan.UpdatedAt = now

	book.State = BookStateAvailable
	book.UpdatedAt = now

	user.State = UserStateWithoutLoan
	user.UpdatedAt = now

	return loan, book, user
}

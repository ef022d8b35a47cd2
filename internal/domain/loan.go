package domain

import "time"

// LoanState описывает жизненный цикл выдачи.
// Переход допустим только Active → NotActive; выдача никогда не реактивируется.
type LoanState string

const (
	// LoanStateActive — книга на руках у читателя.
	LoanStateActive LoanState = "active"
	// LoanStateNotActive — книга возвращена; запись сохраняется как история.
	LoanStateNotActive LoanState = "not_active"
)

// Loan связывает одну книгу и одного читателя на ограниченный период.
// Запись принадлежит только оркестратору: ни каталог, ни CRUD читателей её не трогают.
type Loan struct {
	ID        string
	BookID    string
	UserID    string
	LoanDate  time.Time
	State     LoanState
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

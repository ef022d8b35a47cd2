package rest

import (
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	PublishedAt time.Time `json:"published_at"`
	Genre       string    `json:"genre"`
	State       string    `json:"state"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type userResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address"`
	RegisteredAt time.Time `json:"registered_at"`
	State        string    `json:"state"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type loanResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	LoanDate  time.Time `json:"loan_date"`
	State     string    `json:"state"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type timelineEventResponse struct {
	LoanID   string    `json:"loan_id"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type bookRequest struct {
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	PublishedAt time.Time `json:"published_at"`
	Genre       string    `json:"genre"`
}

type userRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type createLoanRequest struct {
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func toBookResponse(book domain.Book) bookResponse {
	return bookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		ISBN:        book.ISBN,
		PublishedAt: book.PublishedAt,
		Genre:       book.Genre,
		State:       string(book.State),
		Version:     book.Version,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

func toBookResponses(books []domain.Book) []bookResponse {
	result := make([]bookResponse, 0, len(books))
	for _, book := range books {
		result = append(result, toBookResponse(book))
	}
	return result
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Name:         user.Name,
		LastName:     user.LastName,
		Email:        user.Email,
		Phone:        user.Phone,
		Address:      user.Address,
		RegisteredAt: user.RegisteredAt,
		State:        string(user.State),
		Version:      user.Version,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	result := make([]userResponse, 0, len(users))
	for _, user := range users {
		result = append(result, toUserResponse(user))
	}
	return result
}

func toLoanResponse(loan domain.Loan) loanResponse {
	return loanResponse{
		ID:        loan.ID,
		BookID:    loan.BookID,
		UserID:    loan.UserID,
		LoanDate:  loan.LoanDate,
		State:     string(loan.State),
		Version:   loan.Version,
		CreatedAt: loan.CreatedAt,
		UpdatedAt: loan.UpdatedAt,
	}
}

func toLoanResponses(loans []domain.Loan) []loanResponse {
	result := make([]loanResponse, 0, len(loans))
	for _, loan := range loans {
		result = append(result, toLoanResponse(loan))
	}
	return result
}

func toTimelineResponses(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventResponse{
			LoanID:   event.LoanID,
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return result
}

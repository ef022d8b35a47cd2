package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

func seedBook(t *testing.T, store *Store, id string) domain.Book {
	t.Helper()

	now := time.Now().UTC()
	book := domain.Book{
		ID:          id,
		Title:       "El coronel no tiene quien le escriba",
		Author:      "Gabriel García Márquez",
		ISBN:        "isbn-" + id,
		PublishedAt: now,
		Genre:       "novel",
		State:       domain.BookStateAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.Books().Create(book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}

func seedUser(t *testing.T, store *Store, id string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	user := domain.User{
		ID:           id,
		Name:         "Andres",
		LastName:     "Rojas",
		Email:        id + "@example.com",
		Address:      "Calle 1 #2-3",
		RegisteredAt: now,
		State:        domain.UserStateWithoutLoan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Users().Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestSaveAtomic_AppliesAllRecords(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")
	user := seedUser(t, store, "user-1")

	now := time.Now().UTC()
	nb, nu, loan := domain.ApplyCreate(book, user, now)
	loan.ID = "loan-1"

	if err := store.SaveAtomic(domain.ChangeSet{Book: &nb, User: &nu, Loan: &loan}); err != nil {
		t.Fatalf("save atomic: %v", err)
	}

	gotBook, _ := store.Books().Get("book-1")
	if gotBook.State != domain.BookStateLoaned || gotBook.Version != 1 {
		t.Errorf("book after save = %s/v%d, want loaned/v1", gotBook.State, gotBook.Version)
	}
	gotUser, _ := store.Users().Get("user-1")
	if gotUser.State != domain.UserStateWithLoan || gotUser.Version != 1 {
		t.Errorf("user after save = %s/v%d, want with_loan/v1", gotUser.State, gotUser.Version)
	}
	gotLoan, err := store.Loans().Get("loan-1")
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if gotLoan.State != domain.LoanStateActive {
		t.Errorf("loan state = %s, want active", gotLoan.State)
	}
}

func TestSaveAtomic_StaleVersionAppliesNothing(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")
	user := seedUser(t, store, "user-1")

	// Конкурирующая запись успевает первой: версия книги уходит вперёд.
	bumped := book
	if err := store.Books().Save(bumped); err != nil {
		t.Fatalf("bump book version: %v", err)
	}

	now := time.Now().UTC()
	nb, nu, loan := domain.ApplyCreate(book, user, now)
	loan.ID = "loan-1"

	err := store.SaveAtomic(domain.ChangeSet{Book: &nb, User: &nu, Loan: &loan})
	if !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	// Ни одна запись набора не должна быть применена.
	gotUser, _ := store.Users().Get("user-1")
	if gotUser.State != domain.UserStateWithoutLoan || gotUser.Version != 0 {
		t.Errorf("user was partially updated: %s/v%d", gotUser.State, gotUser.Version)
	}
	if _, err := store.Loans().Get("loan-1"); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("loan must not exist after failed SaveAtomic, got %v", err)
	}
}

func TestSaveAtomic_MissingRecords(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")

	ghost := domain.User{ID: "ghost", State: domain.UserStateWithoutLoan}
	err := store.SaveAtomic(domain.ChangeSet{Book: &book, User: &ghost})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSaveAtomic_ConcurrentWritersSingleWinner(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	successes := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidate := book
			candidate.State = domain.BookStateLoaned
			err := store.SaveAtomic(domain.ChangeSet{Book: &candidate})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domain.IsVersionConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != writers-1 {
		t.Fatalf("got %d successes and %d conflicts, want 1 and %d", successes, conflicts, writers-1)
	}
}

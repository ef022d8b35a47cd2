package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

func TestBookRepository_CreateDuplicateISBN(t *testing.T) {
	store := NewStore()
	seedBook(t, store, "book-1")

	dup := domain.Book{ID: "book-2", ISBN: "isbn-book-1"}
	if err := store.Books().Create(dup); !errors.Is(err, domain.ErrDuplicateISBN) {
		t.Fatalf("expected ErrDuplicateISBN, got %v", err)
	}
}

func TestBookRepository_SaveVersionConflict(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")

	if err := store.Books().Save(book); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// Повторное сохранение с той же версией должно отклоняться.
	if err := store.Books().Save(book); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestBookRepository_SearchAndFilters(t *testing.T) {
	store := NewStore()
	repo := store.Books()

	now := time.Now().UTC()
	books := []domain.Book{
		{ID: "b1", Title: "La hojarasca", Author: "Gabriel García Márquez", ISBN: "i1", Genre: "novel", State: domain.BookStateAvailable, CreatedAt: now},
		{ID: "b2", Title: "Rayuela", Author: "Julio Cortázar", ISBN: "i2", Genre: "novel", State: domain.BookStateLoaned, CreatedAt: now.Add(time.Second)},
		{ID: "b3", Title: "Ficciones", Author: "Jorge Luis Borges", ISBN: "i3", Genre: "short stories", State: domain.BookStateAvailable, CreatedAt: now.Add(2 * time.Second)},
	}
	for _, b := range books {
		if err := repo.Create(b); err != nil {
			t.Fatalf("create %s: %v", b.ID, err)
		}
	}

	found, err := repo.Search("garcía")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "b1" {
		t.Errorf("search by author = %v, want [b1]", found)
	}

	found, _ = repo.Search("RAYUELA")
	if len(found) != 1 || found[0].ID != "b2" {
		t.Errorf("case-insensitive title search = %v, want [b2]", found)
	}

	available, _ := repo.ListByState(domain.BookStateAvailable)
	if len(available) != 2 {
		t.Errorf("available books = %d, want 2", len(available))
	}

	byGenre, _ := repo.ListByGenre("short")
	if len(byGenre) != 1 || byGenre[0].ID != "b3" {
		t.Errorf("genre filter = %v, want [b3]", byGenre)
	}

	all, _ := repo.List(2)
	if len(all) != 2 || all[0].ID != "b3" {
		t.Errorf("list with limit = %v, want newest first, 2 entries", all)
	}
}

func TestUserRepository_SearchAndStates(t *testing.T) {
	store := NewStore()
	seedUser(t, store, "user-1")

	found, err := store.Users().Search("roja")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("search by last name = %d results, want 1", len(found))
	}

	free, _ := store.Users().ListByState(domain.UserStateWithoutLoan)
	if len(free) != 1 {
		t.Errorf("without loan = %d, want 1", len(free))
	}
	busy, _ := store.Users().ListByState(domain.UserStateWithLoan)
	if len(busy) != 0 {
		t.Errorf("with loan = %d, want 0", len(busy))
	}
}

func TestLoanRepository_DeleteRegardlessOfState(t *testing.T) {
	store := NewStore()
	book := seedBook(t, store, "book-1")
	user := seedUser(t, store, "user-1")

	nb, nu, loan := domain.ApplyCreate(book, user, time.Now().UTC())
	loan.ID = "loan-1"
	if err := store.SaveAtomic(domain.ChangeSet{Book: &nb, User: &nu, Loan: &loan}); err != nil {
		t.Fatalf("save atomic: %v", err)
	}

	if err := store.Loans().Delete("loan-1"); err != nil {
		t.Fatalf("delete active loan: %v", err)
	}
	if err := store.Loans().Delete("loan-1"); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound on second delete, got %v", err)
	}
}

package lending

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
}

func newFixture() *fixture {
	return &fixture{
		store:    memory.NewStore(),
		outbox:   memory.NewOutboxRepository(),
		timeline: memory.NewTimelineRepository(),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Books:    f.store.Books(),
		Users:    f.store.Users(),
		Loans:    f.store.Loans(),
		Store:    f.store,
		Outbox:   f.outbox,
		Timeline: f.timeline,
	}
}

func (f *fixture) orchestrator(t *testing.T) Orchestrator {
	t.Helper()
	return NewOrchestratorWithoutMetrics(f.deps(), log.New().WithField("test", t.Name()))
}

func (f *fixture) seedBook(t *testing.T, id string) domain.Book {
	t.Helper()

	now := time.Now().UTC()
	book := domain.Book{
		ID:        id,
		Title:     "Crónica de una muerte anunciada",
		Author:    "Gabriel García Márquez",
		ISBN:      "isbn-" + id,
		Genre:     "novel",
		State:     domain.BookStateAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.store.Books().Create(book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}

func (f *fixture) seedUser(t *testing.T, id string) domain.User {
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
	if err := f.store.Users().Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) bookState(t *testing.T, id string) domain.BookState {
	t.Helper()
	book, err := f.store.Books().Get(id)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	return book.State
}

func (f *fixture) userState(t *testing.T, id string) domain.UserState {
	t.Helper()
	user, err := f.store.Users().Get(id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return user.State
}

func collectOutbox(t *testing.T, outbox domain.OutboxRepository) []domain.OutboxMessage {
	t.Helper()

	type allPending interface {
		AllPending() []domain.OutboxMessage
	}
	repo, ok := outbox.(allPending)
	if !ok {
		t.Fatalf("outbox repository does not support AllPending")
	}
	return repo.AllPending()
}

func TestOrchestrator_CreateLoan_Success(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")
	orch := f.orchestrator(t)

	loan, err := orch.CreateLoan("user-1", "book-1")
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if loan.State != domain.LoanStateActive {
		t.Errorf("loan state = %s, want active", loan.State)
	}
	if loan.BookID != "book-1" || loan.UserID != "user-1" {
		t.Errorf("loan references = (%s,%s)", loan.BookID, loan.UserID)
	}
	if got := f.bookState(t, "book-1"); got != domain.BookStateLoaned {
		t.Errorf("book state = %s, want loaned", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithLoan {
		t.Errorf("user state = %s, want with_loan", got)
	}

	msgs := collectOutbox(t, f.outbox)
	if len(msgs) != 1 || msgs[0].EventType != "LoanCreated" {
		t.Errorf("outbox = %v, want single LoanCreated", msgs)
	}
	events, _ := f.timeline.List(loan.ID)
	if len(events) != 1 || events[0].Type != "LoanCreated" {
		t.Errorf("timeline = %v, want single LoanCreated", events)
	}
}

func TestOrchestrator_CreateLoan_NotFound(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")
	orch := f.orchestrator(t)

	if _, err := orch.CreateLoan("ghost", "book-1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("missing user: got %v, want ErrUserNotFound", err)
	}
	if _, err := orch.CreateLoan("user-1", "ghost"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("missing book: got %v, want ErrBookNotFound", err)
	}
	// Отказы до записи: состояния не тронуты.
	if got := f.bookState(t, "book-1"); got != domain.BookStateAvailable {
		t.Errorf("book state = %s, want available", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithoutLoan {
		t.Errorf("user state = %s, want without_loan", got)
	}
}

func TestOrchestrator_CreateLoan_UserAlreadyHasLoan(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedBook(t, "book-2")
	f.seedUser(t, "user-1")
	orch := f.orchestrator(t)

	if _, err := orch.CreateLoan("user-1", "book-1"); err != nil {
		t.Fatalf("first loan: %v", err)
	}

	_, err := orch.CreateLoan("user-1", "book-2")
	if !errors.Is(err, domain.ErrUserAlreadyHasLoan) {
		t.Fatalf("second loan: got %v, want ErrUserAlreadyHasLoan", err)
	}
	if got := f.bookState(t, "book-2"); got != domain.BookStateAvailable {
		t.Errorf("book-2 state = %s, want available", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithLoan {
		t.Errorf("user state = %s, want with_loan", got)
	}
}

func TestOrchestrator_CreateLoan_BookAlreadyBorrowed(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")
	f.seedUser(t, "user-2")
	orch := f.orchestrator(t)

	if _, err := orch.CreateLoan("user-1", "book-1"); err != nil {
		t.Fatalf("first loan: %v", err)
	}
	if _, err := orch.CreateLoan("user-2", "book-1"); !errors.Is(err, domain.ErrBookAlreadyBorrowed) {
		t.Fatalf("second loan: got %v, want ErrBookAlreadyBorrowed", err)
	}
	if got := f.userState(t, "user-2"); got != domain.UserStateWithoutLoan {
		t.Errorf("user-2 state = %s, want without_loan", got)
	}
}

func TestOrchestrator_ReturnLoan_FullCycle(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")
	orch := f.orchestrator(t)

	loan, err := orch.CreateLoan("user-1", "book-1")
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	returned, err := orch.ReturnLoan(loan.ID)
	if err != nil {
		t.Fatalf("return loan: %v", err)
	}
	if returned.State != domain.LoanStateNotActive {
		t.Errorf("loan state = %s, want not_active", returned.State)
	}
	if got := f.bookState(t, "book-1"); got != domain.BookStateAvailable {
		t.Errorf("book state = %s, want available", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithoutLoan {
		t.Errorf("user state = %s, want without_loan", got)
	}

	// Повторный возврат отклоняется, состояния не меняются.
	if _, err := orch.ReturnLoan(loan.ID); !errors.Is(err, domain.ErrLoanAlreadyReturned) {
		t.Fatalf("second return: got %v, want ErrLoanAlreadyReturned", err)
	}
	if got := f.bookState(t, "book-1"); got != domain.BookStateAvailable {
		t.Errorf("book state after second return = %s, want available", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithoutLoan {
		t.Errorf("user state after second return = %s, want without_loan", got)
	}

	// Возврат и повторная выдача создают новую запись, старая не реактивируется.
	again, err := orch.CreateLoan("user-1", "book-1")
	if err != nil {
		t.Fatalf("re-loan: %v", err)
	}
	if again.ID == loan.ID {
		t.Error("re-loan must produce a new loan record")
	}
}

func TestOrchestrator_ReturnLoan_NotFound(t *testing.T) {
	f := newFixture()
	orch := f.orchestrator(t)

	if _, err := orch.ReturnLoan("ghost"); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("got %v, want ErrLoanNotFound", err)
	}
}

func TestOrchestrator_DeleteLoan(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")
	orch := f.orchestrator(t)

	loan, err := orch.CreateLoan("user-1", "book-1")
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if err := orch.DeleteLoan(loan.ID); err != nil {
		t.Fatalf("delete loan: %v", err)
	}
	// Административное удаление не трогает книгу и читателя.
	if got := f.bookState(t, "book-1"); got != domain.BookStateLoaned {
		t.Errorf("book state = %s, want loaned", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithLoan {
		t.Errorf("user state = %s, want with_loan", got)
	}
	if err := orch.DeleteLoan(loan.ID); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("second delete: got %v, want ErrLoanNotFound", err)
	}
}

func TestOrchestrator_ConcurrentCreate_SameBook(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")

	const n = 10
	for i := 0; i < n; i++ {
		f.seedUser(t, fmt.Sprintf("user-%d", i))
	}
	orch := f.orchestrator(t)

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = orch.CreateLoan(fmt.Sprintf("user-%d", i), "book-1")
		}(i)
	}
	wg.Wait()

	successes, borrowed := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrBookAlreadyBorrowed):
			borrowed++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || borrowed != n-1 {
		t.Fatalf("got %d successes and %d rejections, want 1 and %d", successes, borrowed, n-1)
	}

	active, _ := f.store.Loans().ListByState(domain.LoanStateActive)
	if len(active) != 1 {
		t.Fatalf("active loans = %d, want 1", len(active))
	}
}

func TestOrchestrator_ConcurrentCreate_SameUser(t *testing.T) {
	f := newFixture()
	f.seedUser(t, "user-1")

	const n = 10
	for i := 0; i < n; i++ {
		f.seedBook(t, fmt.Sprintf("book-%d", i))
	}
	orch := f.orchestrator(t)

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = orch.CreateLoan("user-1", fmt.Sprintf("book-%d", i))
		}(i)
	}
	wg.Wait()

	successes, hasLoan := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrUserAlreadyHasLoan):
			hasLoan++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || hasLoan != n-1 {
		t.Fatalf("got %d successes and %d rejections, want 1 and %d", successes, hasLoan, n-1)
	}
}

// failingStore отклоняет каждую атомарную запись, имитируя сбой хранилища.
type failingStore struct {
	err error
}

func (s *failingStore) SaveAtomic(domain.ChangeSet) error { return s.err }

func TestOrchestrator_StoreFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")

	deps := f.deps()
	deps.Store = &failingStore{err: errors.New("disk full")}
	orch := NewOrchestratorWithoutMetrics(deps, log.New().WithField("test", t.Name()))

	if _, err := orch.CreateLoan("user-1", "book-1"); err == nil {
		t.Fatal("expected error from failing store")
	}

	if got := f.bookState(t, "book-1"); got != domain.BookStateAvailable {
		t.Errorf("book state = %s, want available", got)
	}
	if got := f.userState(t, "user-1"); got != domain.UserStateWithoutLoan {
		t.Errorf("user state = %s, want without_loan", got)
	}
	if loans, _ := f.store.Loans().List(0); len(loans) != 0 {
		t.Errorf("loans = %d, want 0", len(loans))
	}
}

func TestOrchestrator_ConflictRetriesExhausted(t *testing.T) {
	f := newFixture()
	f.seedBook(t, "book-1")
	f.seedUser(t, "user-1")

	deps := f.deps()
	deps.Store = &failingStore{err: domain.ErrVersionConflict}
	orch := NewOrchestratorWithoutMetrics(deps, log.New().WithField("test", t.Name()))

	if _, err := orch.CreateLoan("user-1", "book-1"); !domain.IsVersionConflict(err) {
		t.Fatalf("got %v, want version conflict after retries", err)
	}
}

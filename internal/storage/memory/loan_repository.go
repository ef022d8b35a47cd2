package memory

import (
	"sort"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// loanRepositoryInMemory — реализация LoanRepository поверх общего Store.
// Вставка выдач происходит только через Store.SaveAtomic.
type loanRepositoryInMemory struct {
	store *Store
}

// Get возвращает выдачу или ErrLoanNotFound, если её нет.
func (r *loanRepositoryInMemory) Get(id string) (domain.Loan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	loan, ok := r.store.loans[id]
	if !ok {
		return domain.Loan{}, domain.ErrLoanNotFound
	}
	return loan, nil
}

// List возвращает выдачи, ограничивая выборку limit (если >0).
func (r *loanRepositoryInMemory) List(limit int) ([]domain.Loan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Loan, 0, len(r.store.loans))
	for _, loan := range r.store.loans {
		result = append(result, loan)
	}
	sortLoans(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByState возвращает выдачи в заданном состоянии.
func (r *loanRepositoryInMemory) ListByState(state domain.LoanState) ([]domain.Loan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Loan, 0)
	for _, loan := range r.store.loans {
		if loan.State == state {
			result = append(result, loan)
		}
	}
	sortLoans(result)
	return result, nil
}

// Delete удаляет выдачу независимо от её состояния.
func (r *loanRepositoryInMemory) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.loans[id]; !ok {
		return domain.ErrLoanNotFound
	}
	delete(r.store.loans, id)
	return nil
}

func sortLoans(loans []domain.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].CreatedAt.After(loans[j].CreatedAt)
		}
		return loans[i].ID > loans[j].ID
	})
}

var _ domain.LoanRepository = (*loanRepositoryInMemory)(nil)

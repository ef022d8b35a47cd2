package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

const loanColumns = `id, book_id, user_id, loan_date, state, version, created_at, updated_at`

type loanRepository struct {
	db *sql.DB
}

// NewLoanRepository создаёт SQLite-реализацию LoanRepository.
// Вставки и смена состояния выдач идут только через Store.SaveAtomic.
func NewLoanRepository(store *Store) domain.LoanRepository {
	return &loanRepository{db: store.DB()}
}

func (r *loanRepository) Get(id string) (domain.Loan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE id = ?
	`, id)

	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Loan{}, domain.ErrLoanNotFound
		}
		return domain.Loan{}, fmt.Errorf("select loan: %w", err)
	}

	return loan, nil
}

func (r *loanRepository) List(limit int) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.queryLoans(query+" LIMIT ?", limit)
	}
	return r.queryLoans(query)
}

func (r *loanRepository) ListByState(state domain.LoanState) ([]domain.Loan, error) {
	return r.queryLoans(`
		SELECT `+loanColumns+`
		FROM loans
		WHERE state = ?
		ORDER BY created_at DESC, id DESC
	`, string(state))
}

func (r *loanRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrLoanNotFound
	}

	return nil
}

func (r *loanRepository) queryLoans(query string, args ...any) ([]domain.Loan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	loans := make([]domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan rows: %w", err)
	}

	return loans, nil
}

func scanLoan(row rowScanner) (domain.Loan, error) {
	var (
		loan  domain.Loan
		state string
	)
	if err := row.Scan(
		&loan.ID, &loan.BookID, &loan.UserID, &loan.LoanDate,
		&state, &loan.Version, &loan.CreatedAt, &loan.UpdatedAt,
	); err != nil {
		return domain.Loan{}, err
	}
	loan.State = domain.LoanState(state)
	return loan, nil
}

var _ domain.LoanRepository = (*loanRepository)(nil)

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// SaveAtomic применяет набор изменений в одной транзакции.
// Версионные UPDATE-ы гарантируют ровно одного победителя при гонке:
// проигравшая транзакция не затрагивает ни одной строки и получает
// ErrVersionConflict.
func (s *Store) SaveAtomic(cs domain.ChangeSet) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin atomic tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if cs.Book != nil {
		if err = saveBookTx(ctx, tx, cs.Book); err != nil {
			return err
		}
	}
	if cs.User != nil {
		if err = saveUserTx(ctx, tx, cs.User); err != nil {
			return err
		}
	}
	if cs.Loan != nil {
		if err = saveLoanTx(ctx, tx, cs.Loan); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit atomic tx: %w", err)
	}

	return nil
}

func saveBookTx(ctx context.Context, tx *sql.Tx, book *domain.Book) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET state = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(book.State), book.UpdatedAt, book.ID, book.Version)
	if err != nil {
		return fmt.Errorf("atomic update book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("atomic book rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := existsTx(ctx, tx, "books", book.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrBookNotFound
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func saveUserTx(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET state = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(user.State), user.UpdatedAt, user.ID, user.Version)
	if err != nil {
		return fmt.Errorf("atomic update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("atomic user rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := existsTx(ctx, tx, "users", user.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrUserNotFound
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func saveLoanTx(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET state = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(loan.State), loan.UpdatedAt, loan.ID, loan.Version)
	if err != nil {
		return fmt.Errorf("atomic update loan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("atomic loan rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	exists, err := existsTx(ctx, tx, "loans", loan.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrVersionConflict
	}

	// Новая выдача вставляется в той же транзакции, что и смена
	// состояний книги и читателя.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO loans (
			id, book_id, user_id, loan_date, state, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		loan.ID, loan.BookID, loan.UserID, loan.LoanDate,
		string(loan.State), loan.Version, loan.CreatedAt, loan.UpdatedAt,
	); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("atomic insert loan: %w", err)
	}

	return nil
}

func existsTx(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var found string
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check %s exists: %w", table, err)
}

var _ domain.AtomicStore = (*Store)(nil)

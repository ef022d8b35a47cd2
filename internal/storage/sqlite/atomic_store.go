package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// SaveAtomic применяет набор изменений в одной транзакции.
// SQLite сериализует писателей, поэтому версионные UPDATE-ы дают
// ровно одного победителя при гонке без дополнительных блокировок.
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
		if err = s.saveBookTx(ctx, tx, cs.Book); err != nil {
			return err
		}
	}
	if cs.User != nil {
		if err = s.saveUserTx(ctx, tx, cs.User); err != nil {
			return err
		}
	}
	if cs.Loan != nil {
		if err = s.saveLoanTx(ctx, tx, cs.Loan); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit atomic tx: %w", err)
	}

	return nil
}

func (s *Store) saveBookTx(ctx context.Context, tx *sql.Tx, book *domain.Book) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET state = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ?
		  AND version = ?
	`, string(book.State), book.UpdatedAt, book.ID, book.Version)
	if err != nil {
		return fmt.Errorf("atomic update book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("atomic book rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := rowExistsTx(ctx, tx, "books", book.ID)
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

func (s *Store) saveUserTx(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET state = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ?
		  AND version = ?
	`, string(user.State), user.UpdatedAt, user.ID, user.Version)
	if err != nil {
		return fmt.Errorf("atomic update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("atomic user rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := rowExistsTx(ctx, tx, "users", user.ID)
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

func (s *Store) saveLoanTx(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET state = ?,
		    version = version + 1,
		    updated_at = ?
		WHERE id = ?
		  AND version = ?
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

	exists, err := rowExistsTx(ctx, tx, "loans", loan.ID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO loans (
			id, book_id, user_id, loan_date, state, version, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?)
	`,
		loan.ID, loan.BookID, loan.UserID, loan.LoanDate,
		string(loan.State), loan.Version, loan.CreatedAt, loan.UpdatedAt,
	); err != nil {
		if _, ok := constraintViolation(err); ok {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("atomic insert loan: %w", err)
	}

	return nil
}

func rowExistsTx(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var found string
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE id = ?`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check %s exists: %w", table, err)
}

var _ domain.AtomicStore = (*Store)(nil)

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ValerioMC/smart-ledger-be/internal/domain"
)

// TransactionFilter narrows an owner's listing. Nil fields do not filter.
type TransactionFilter struct {
	Type *domain.TransactionType
	From *time.Time
	To   *time.Time
}

// TransactionRepository persists ledger records. Every method takes the owner id
// and uses (id, owner) as a single predicate; there is no unscoped lookup.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	ListOwned(ctx context.Context, ownerID int64, filter TransactionFilter) ([]domain.Transaction, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*domain.Transaction, error)
	UpdateOwned(ctx context.Context, ownerID, id int64, fields domain.TransactionFields) (*domain.Transaction, error)
	DeleteOwned(ctx context.Context, ownerID, id int64) error
}

const transactionColumns = `id, user_id, type, category, amount, date, description, created_at, updated_at`

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository instantiates the Postgres repository.
func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (user_id, type, category, amount, date, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		tx.Category,
		tx.Amount,
		tx.Date,
		tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
}

func (r *transactionRepository) ListOwned(ctx context.Context, ownerID int64, filter TransactionFilter) ([]domain.Transaction, error) {
	clauses := []string{"user_id=$1"}
	args := []any{ownerID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY date DESC, id ASC`,
		transactionColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *transactionRepository) GetOwned(ctx context.Context, ownerID, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1 AND user_id=$2`
	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return tx, nil
}

// UpdateOwned locks the owned row, then rewrites the editable columns in the same
// database transaction. Concurrent updates of one row serialize on the lock.
func (r *transactionRepository) UpdateOwned(ctx context.Context, ownerID, id int64, fields domain.TransactionFields) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := pgx.BeginFunc(ctx, r.pool, func(dbTx pgx.Tx) error {
		lock := `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1 AND user_id=$2 FOR UPDATE`
		current, err := scanTransaction(dbTx.QueryRow(ctx, lock, id, ownerID))
		if err != nil {
			return mapNoRows(err)
		}

		current.Apply(fields)
		const update = `
            UPDATE transactions SET type=$1, category=$2, amount=$3, date=$4, description=$5, updated_at=NOW()
            WHERE id=$6 AND user_id=$7
            RETURNING updated_at`
		if err := dbTx.QueryRow(ctx, update,
			current.Type,
			current.Category,
			current.Amount,
			current.Date,
			current.Description,
			id,
			ownerID,
		).Scan(&current.UpdatedAt); err != nil {
			return mapNoRows(err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *transactionRepository) DeleteOwned(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM transactions WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Category,
		&tx.Amount,
		&tx.Date,
		&tx.Description,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	result := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

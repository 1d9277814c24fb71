package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BalanceRepo keeps player balances in minor currency units.
type BalanceRepo struct {
	db *DB
}

func NewBalanceRepo(db *DB) *BalanceRepo {
	return &BalanceRepo{db: db}
}

// Balance returns 0 for a player with no row yet.
func (r *BalanceRepo) Balance(ctx context.Context, player int64) (int64, error) {
	var bal int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT balance FROM balances WHERE player_id = $1`, player,
	).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return bal, err
}

func (r *BalanceRepo) Credit(ctx context.Context, player int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d: negative amount", amount)
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO balances (player_id, balance) VALUES ($1, $2)
		 ON CONFLICT (player_id) DO UPDATE SET balance = balances.balance + EXCLUDED.balance`,
		player, amount,
	)
	return err
}

// Debit withdraws amount only if the balance covers it. ok is false when
// funds are insufficient; the balance is then unchanged.
func (r *BalanceRepo) Debit(ctx context.Context, player int64, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("debit %d: negative amount", amount)
	}
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE balances SET balance = balance - $2 WHERE player_id = $1 AND balance >= $2`,
		player, amount,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

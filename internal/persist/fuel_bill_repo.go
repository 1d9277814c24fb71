package persist

import "context"

// FuelBillRepo records fuel station sales.
type FuelBillRepo struct {
	db *DB
}

func NewFuelBillRepo(db *DB) *FuelBillRepo {
	return &FuelBillRepo{db: db}
}

func (r *FuelBillRepo) RecordConsumption(ctx context.Context, player int64, amount float64, cost int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO fuel_bills (player_id, amount, cost) VALUES ($1, $2, $3)`,
		player, amount, cost,
	)
	return err
}

// Total sums a player's bills, in minor currency units.
func (r *FuelBillRepo) Total(ctx context.Context, player int64) (int64, error) {
	var total int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost), 0) FROM fuel_bills WHERE player_id = $1`, player,
	).Scan(&total)
	return total, err
}

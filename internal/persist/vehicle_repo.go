package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// VehicleRepo stores vehicle snapshots: one vehicles row plus one JSONB tag
// record per attached component.
type VehicleRepo struct {
	db *DB
}

func NewVehicleRepo(db *DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

// SaveBatch upserts every snapshot in a single transaction. A vehicle's
// component records are replaced as a whole. A snapshot older than the
// stored revision is skipped, so a slow periodic batch cannot overwrite a
// newer service save.
func (r *VehicleRepo) SaveBatch(ctx context.Context, snaps []world.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, s := range snaps {
			if err := saveVehicle(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

// saveVehicle upserts one snapshot. A stale revision leaves the row and its
// components untouched.
func saveVehicle(ctx context.Context, tx pgx.Tx, s world.Snapshot) error {
	id := int64(s.ID)
	res, err := tx.Exec(ctx,
		`INSERT INTO vehicles (id, model_id, owner_id, x, y, z, heading, odometer, revision, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		 ON CONFLICT (id) DO UPDATE SET
		   model_id = EXCLUDED.model_id, owner_id = EXCLUDED.owner_id,
		   x = EXCLUDED.x, y = EXCLUDED.y, z = EXCLUDED.z,
		   heading = EXCLUDED.heading, odometer = EXCLUDED.odometer,
		   revision = EXCLUDED.revision, updated_at = now()
		 WHERE vehicles.revision < EXCLUDED.revision`,
		id, s.ModelID, s.Owner, s.X, s.Y, s.Z, s.Heading, s.Odometer, int64(s.Revision),
	)
	if err != nil {
		return fmt.Errorf("save vehicle %s: %w", s.ID, err)
	}
	if res.RowsAffected() == 0 {
		return nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vehicle_components WHERE vehicle_id = $1`, id); err != nil {
		return fmt.Errorf("clear components %s: %w", s.ID, err)
	}
	for _, tag := range s.Components {
		raw, err := encodeTag(tag)
		if err != nil {
			return fmt.Errorf("encode component of %s: %w", s.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO vehicle_components (vehicle_id, component_type, tag) VALUES ($1, $2, $3)`,
			id, tag.String(component.KeyComponentType), raw,
		); err != nil {
			return fmt.Errorf("save component of %s: %w", s.ID, err)
		}
	}
	return nil
}

// LoadAll returns every stored vehicle ordered by id.
func (r *VehicleRepo) LoadAll(ctx context.Context) ([]world.Snapshot, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, model_id, owner_id, x, y, z, heading, odometer, revision FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var snaps []world.Snapshot
	index := make(map[ecs.EntityID]int)
	for rows.Next() {
		var (
			s   world.Snapshot
			id  int64
			rev int64
		)
		if err := rows.Scan(&id, &s.ModelID, &s.Owner, &s.X, &s.Y, &s.Z, &s.Heading, &s.Odometer, &rev); err != nil {
			rows.Close()
			return nil, err
		}
		s.ID = ecs.EntityID(id)
		s.Revision = uint64(rev)
		index[s.ID] = len(snaps)
		snaps = append(snaps, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := r.db.Pool.Query(ctx,
		`SELECT vehicle_id, tag FROM vehicle_components ORDER BY vehicle_id, component_type`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := crows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		i, ok := index[ecs.EntityID(id)]
		if !ok {
			continue
		}
		tag, err := decodeTag(raw)
		if err != nil {
			return nil, fmt.Errorf("decode component of %s: %w", ecs.EntityID(id), err)
		}
		snaps[i].Components = append(snaps[i].Components, tag)
	}
	return snaps, crows.Err()
}

// Delete removes a vehicle and, by cascade, its component records.
func (r *VehicleRepo) Delete(ctx context.Context, id ecs.EntityID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, int64(id))
	return err
}

func encodeTag(t component.Tag) ([]byte, error) {
	return json.Marshal(t)
}

// decodeTag keeps numbers as json.Number; integers such as Count stay exact
// and Tag.Float parses the rest at full precision.
func decodeTag(raw []byte) (component.Tag, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	t := component.Tag{}
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	return t, nil
}

package handler

import (
	"context"
	"math"
	"time"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/dealer"
	"github.com/schedulemc/vehiclesim/internal/fuelstation"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"github.com/schedulemc/vehiclesim/internal/workshop"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// serviceTimeout bounds the ledger/balance round trip of one request.
const serviceTimeout = 2 * time.Second

// Refueler is implemented by *fuelstation.Station.
type Refueler interface {
	Refuel(ctx context.Context, v *world.Vehicle, player int64, fluid component.Fluid, amount float64) (fuelstation.Receipt, error)
}

// Seller is implemented by *dealer.Dealer.
type Seller interface {
	Purchase(ctx context.Context, player int64, modelID string) (*world.Vehicle, int64, error)
}

// Repairer is implemented by *workshop.Workshop.
type Repairer interface {
	Repair(ctx context.Context, v *world.Vehicle, player int64) (workshop.Receipt, error)
}

// Saver is implemented by *persist.VehicleRepo.
type Saver interface {
	SaveBatch(ctx context.Context, snaps []world.Snapshot) error
}

var (
	_ Refueler = (*fuelstation.Station)(nil)
	_ Seller   = (*dealer.Dealer)(nil)
	_ Repairer = (*workshop.Workshop)(nil)
)

// serviced looks up a vehicle the player may have serviced: one they own or
// one they are driving.
func serviced(sess *net.Session, id ecs.EntityID, deps *Deps) *world.Vehicle {
	v := deps.World.Get(id)
	if v == nil {
		return nil
	}
	if v.Owner == sess.PlayerID || v.Driver == sess.PlayerID {
		return v
	}
	return nil
}

// HandleRefuel processes C_REFUEL (opcode 0x06).
func HandleRefuel(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	fluid := component.Fluid(r.ReadS())
	amount := float64(r.ReadF())
	if r.Short() || math.IsNaN(amount) || amount <= 0 {
		return
	}
	v := serviced(sess, id, deps)
	if v == nil || deps.Station == nil {
		sendReceipt(sess, packet.ReceiptFuel, id, false, 0, "vehicle not available")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	rc, err := deps.Station.Refuel(ctx, v, sess.PlayerID, fluid, amount)
	if err != nil {
		sess.Log().Debug("refuel refused", zap.Stringer("vehicle", id), zap.Error(err))
		sendReceipt(sess, packet.ReceiptFuel, id, false, 0, err.Error())
		return
	}
	saveServiced(v, deps)
	sendReceipt(sess, packet.ReceiptFuel, id, true, rc.Cost, rc.Text)
}

// HandlePurchase processes C_PURCHASE (opcode 0x07). The bought vehicle's id
// comes back in the receipt; binding to it is a separate C_BIND.
func HandlePurchase(sess *net.Session, r *packet.Reader, deps *Deps) {
	model := r.ReadS()
	if r.Short() || model == "" || deps.Dealer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	v, price, err := deps.Dealer.Purchase(ctx, sess.PlayerID, model)
	if err != nil {
		sess.Log().Debug("purchase refused", zap.String("model", model), zap.Error(err))
		sendReceipt(sess, packet.ReceiptPurchase, 0, false, 0, err.Error())
		return
	}
	saveServiced(v, deps)
	sendReceipt(sess, packet.ReceiptPurchase, v.ID, true, price, v.ModelID)
}

// HandleRepair processes C_REPAIR (opcode 0x08).
func HandleRepair(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	if r.Short() {
		return
	}
	v := serviced(sess, id, deps)
	if v == nil || deps.Workshop == nil {
		sendReceipt(sess, packet.ReceiptRepair, id, false, 0, "vehicle not available")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	rc, err := deps.Workshop.Repair(ctx, v, sess.PlayerID)
	if err != nil {
		sendReceipt(sess, packet.ReceiptRepair, id, false, 0, err.Error())
		return
	}
	saveServiced(v, deps)
	sendReceipt(sess, packet.ReceiptRepair, id, true, rc.Cost, rc.Text)
}

// HandleScrap processes C_SCRAP (opcode 0x09). Only the owner may scrap a
// vehicle; whoever is driving it is put back on foot first.
func HandleScrap(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	if r.Short() {
		return
	}
	v := deps.World.Get(id)
	if v == nil || v.Owner == world.NoPlayer || v.Owner != sess.PlayerID {
		sendReceipt(sess, packet.ReceiptScrap, id, false, 0, "vehicle not available")
		return
	}

	if driver := deps.Sessions.Driving(id); driver != nil {
		Release(driver, deps)
		driver.SetState(packet.StateIdentified)
		if driver != sess {
			sendBindResult(driver, 0, true)
		}
	}
	deps.World.Remove(id)
	deps.Log.Info("vehicle scrapped",
		zap.Int64("player", sess.PlayerID),
		zap.Stringer("vehicle", id),
		zap.String("model", v.ModelID),
	)
	sendReceipt(sess, packet.ReceiptScrap, id, true, 0, v.ModelID)
}

// saveServiced writes v at once so a paid service survives a crash before
// the next periodic save. The charge has already happened, so a failed write
// is logged and the receipt still goes out.
func saveServiced(v *world.Vehicle, deps *Deps) {
	if deps.Saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	if err := deps.Saver.SaveBatch(ctx, []world.Snapshot{v.Snapshot()}); err != nil {
		deps.Log.Error("service save failed", zap.Stringer("vehicle", v.ID), zap.Error(err))
	}
}

package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// Periods reported by CalcFuelPrice.
const (
	PeriodDay   = "day"
	PeriodNight = "night"
)

const defaultTicksPerDay = 24000

// FuelPriceContext holds the inputs of one station sale.
type FuelPriceContext struct {
	DayTime      int64 // in-game ticks since world start
	TicksPerDay  int64
	MorningPrice float64 // per 10 units
	EveningPrice float64
	PriceFactor  float64 // fluid multiplier
	Amount       float64 // units actually pumped
}

// FuelPriceResult is returned by the Lua calc_fuel_price function.
// Cost is in major currency units.
type FuelPriceResult struct {
	PricePer10 float64
	Cost       float64
	Period     string
}

// CalcFuelPrice calls the Lua calc_fuel_price function.
func (e *Engine) CalcFuelPrice(ctx FuelPriceContext) FuelPriceResult {
	t := e.vm.NewTable()
	t.RawSetString("day_time", lua.LNumber(ctx.DayTime))
	t.RawSetString("ticks_per_day", lua.LNumber(ctx.TicksPerDay))
	t.RawSetString("morning_price", lua.LNumber(ctx.MorningPrice))
	t.RawSetString("evening_price", lua.LNumber(ctx.EveningPrice))
	t.RawSetString("price_factor", lua.LNumber(ctx.PriceFactor))
	t.RawSetString("amount", lua.LNumber(ctx.Amount))

	rt, ok := e.callTable("calc_fuel_price", t)
	if !ok {
		return FuelPriceFallback(ctx)
	}
	return FuelPriceResult{
		PricePer10: lNum(rt, "price_per_10"),
		Cost:       lNum(rt, "cost"),
		Period:     lStr(rt, "period"),
	}
}

// FuelPriceFallback mirrors scripts/pricing/fuel.lua. The first half of the
// in-game day sells at the morning price; every started 10 units is billed.
func FuelPriceFallback(ctx FuelPriceContext) FuelPriceResult {
	day := ctx.TicksPerDay
	if day <= 0 {
		day = defaultTicksPerDay
	}
	t := ctx.DayTime % day
	if t < 0 {
		t += day
	}
	price, period := ctx.MorningPrice, PeriodDay
	if t >= day/2 {
		price, period = ctx.EveningPrice, PeriodNight
	}
	factor := ctx.PriceFactor
	if factor <= 0 {
		factor = 1
	}
	price *= factor

	var cost float64
	if ctx.Amount > 0 {
		cost = math.Ceil(ctx.Amount/10) * price
	}
	return FuelPriceResult{PricePer10: price, Cost: cost, Period: period}
}

// RepairContext describes the damage a workshop is asked to fix.
type RepairContext struct {
	EngineHealth float64
	EngineWear   float64
	WheelWear    float64
	WheelCount   int
	ModelPrice   int64   // minor currency units
	MaxHealth    float64 // health a repair restores; 0 means 1
}

func (c RepairContext) healthGap() float64 {
	ceiling := c.MaxHealth
	if ceiling <= 0 {
		ceiling = 1
	}
	return math.Max(0, ceiling-c.EngineHealth)
}

// CalcRepairCost calls the Lua calc_repair_cost function. The result is in
// minor currency units.
func (e *Engine) CalcRepairCost(ctx RepairContext) int64 {
	t := e.vm.NewTable()
	t.RawSetString("engine_health", lua.LNumber(ctx.EngineHealth))
	t.RawSetString("engine_wear", lua.LNumber(ctx.EngineWear))
	t.RawSetString("wheel_wear", lua.LNumber(ctx.WheelWear))
	t.RawSetString("wheel_count", lua.LNumber(ctx.WheelCount))
	t.RawSetString("model_price", lua.LNumber(ctx.ModelPrice))
	t.RawSetString("max_health", lua.LNumber(ctx.MaxHealth))

	rt, ok := e.callTable("calc_repair_cost", t)
	if !ok {
		return RepairCostFallback(ctx)
	}
	cost := int64(lNum(rt, "cost"))
	if cost < 0 {
		return 0
	}
	return cost
}

// Repair tariff, minor currency units.
const (
	repairBase         = 5000
	repairHealthShare  = 0.30 // of the model price, for a destroyed engine
	repairWearShare    = 0.10 // of the model price, for a fully worn engine
	repairPerWheelWorn = 2500 // per fully worn wheel
)

// RepairCostFallback mirrors scripts/pricing/repair.lua.
func RepairCostFallback(ctx RepairContext) int64 {
	price := float64(ctx.ModelPrice)
	cost := repairBase +
		ctx.healthGap()*price*repairHealthShare +
		ctx.EngineWear*price*repairWearShare +
		ctx.WheelWear*float64(ctx.WheelCount)*repairPerWheelWorn
	return int64(math.Floor(cost + 0.5))
}

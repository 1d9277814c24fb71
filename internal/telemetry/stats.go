package telemetry

import (
	"sort"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats summarises every vehicle sample taken during one window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Vehicles int `csv:"vehicles"`
	Samples  int `csv:"samples"`
	Running  int `csv:"running"` // vehicles with the engine on at window end

	KmHMean float64 `csv:"kmh_mean"`
	KmHStd  float64 `csv:"kmh_std"`
	KmHP50  float64 `csv:"kmh_p50"`
	KmHP90  float64 `csv:"kmh_p90"`
	KmHMax  float64 `csv:"kmh_max"`

	RPMMean   float64 `csv:"rpm_mean"`
	TempMean  float64 `csv:"temp_mean"`
	TempMax   float64 `csv:"temp_max"`
	FuelMean  float64 `csv:"fuel_mean"` // percent
	HealthMin float64 `csv:"health_min"`

	Distance float64 `csv:"distance"` // odometer gained by all vehicles

	// Events during window
	Starts       int `csv:"starts"`
	StartFails   int `csv:"start_fails"`
	FuelStalls   int `csv:"fuel_stalls"`
	Collisions   int `csv:"collision_stalls"`
	Destroyed    int `csv:"destroyed"`
	HornsSounded int `csv:"horns"`
}

// Quantile returns the p-quantile of values, 0 for an empty slice.
// values is sorted in place.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return stat.Quantile(p, stat.Empirical, values, nil)
}

// MeanStd returns the mean and sample standard deviation of values.
// A single value has deviation 0.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// MarshalLogObject lets the stats be logged with zap.Object.
func (s WindowStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("window_end", s.WindowEndTick)
	enc.AddFloat64("sim_time", s.SimTimeSec)
	enc.AddInt("vehicles", s.Vehicles)
	enc.AddInt("running", s.Running)
	enc.AddFloat64("kmh_mean", s.KmHMean)
	enc.AddFloat64("kmh_max", s.KmHMax)
	enc.AddFloat64("temp_max", s.TempMax)
	enc.AddFloat64("fuel_mean", s.FuelMean)
	enc.AddFloat64("distance", s.Distance)
	enc.AddInt("fuel_stalls", s.FuelStalls)
	enc.AddInt("collision_stalls", s.Collisions)
	return nil
}

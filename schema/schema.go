// Package schema has the data types shared across bikebin packages.
package schema

import "time"

// RawObservation is a single dock sensor reading.
type RawObservation struct {
	StationID      int
	BikesAvailable int
	FreeSlots      int
	Timestamp      time.Time
}

// Size is the observed station capacity for this reading.
func (o RawObservation) Size() int {
	return o.BikesAvailable + o.FreeSlots
}

// Valid reports whether the reading satisfies the sensor invariants.
func (o RawObservation) Valid() bool {
	return o.BikesAvailable >= 0 && o.FreeSlots >= 0 && o.Size() > 0
}

// BinKey identifies the group a reading falls into.
type BinKey struct {
	StationID   int
	GlobalBinID int
}

// BinAggregate is the reduced form of all readings of one station within one bin.
type BinAggregate struct {
	DayID         int     `json:"day_id"`
	StationID     int     `json:"station_id"`
	DailyBinID    int     `json:"daily_bin_id"`
	Average       float64 `json:"average"`
	StationSize   int     `json:"station_size"`
	CategoryLabel int     `json:"category_label"`
}

// AggregateSummary counts what happened to the input of one aggregation pass.
type AggregateSummary struct {
	Accepted    int                `json:"accepted"`
	Dropped     map[DropReason]int `json:"dropped"`
	Bins        int                `json:"bins"`
	EmptyBins   int                `json:"empty_bins"`
	Stations    int                `json:"stations"`
	Duration    time.Duration      `json:"duration"`
	SourceFiles []string           `json:"source_files"`
}

// TotalDropped returns the number of readings dropped for any reason.
func (s AggregateSummary) TotalDropped() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

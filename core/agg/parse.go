package agg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// errMalformed is returned for raw lines that cannot be parsed.
var errMalformed = errors.New("malformed observation")

// ParseObservation parses a raw sensor line of the form
// "<stationId> <bikesAvailable> <freeSlots> <timestampIso8601>".
// Fields may be separated by any run of spaces or tabs.
func ParseObservation(line string) (schema.RawObservation, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return schema.RawObservation{}, fmt.Errorf("%w: expected 4 fields, got %d", errMalformed, len(fields))
	}

	station, err := strconv.Atoi(fields[0])
	if err != nil {
		return schema.RawObservation{}, fmt.Errorf("%w: station id %q", errMalformed, fields[0])
	}
	bikes, err := strconv.Atoi(fields[1])
	if err != nil {
		return schema.RawObservation{}, fmt.Errorf("%w: bikes available %q", errMalformed, fields[1])
	}
	free, err := strconv.Atoi(fields[2])
	if err != nil {
		return schema.RawObservation{}, fmt.Errorf("%w: free slots %q", errMalformed, fields[2])
	}
	ts, err := contract.ParseTimestamp(fields[3])
	if err != nil {
		return schema.RawObservation{}, fmt.Errorf("%w: %v", errMalformed, err)
	}

	return schema.RawObservation{
		StationID:      station,
		BikesAvailable: bikes,
		FreeSlots:      free,
		Timestamp:      ts,
	}, nil
}

// Sample is the part of an accepted observation the reducer needs.
type Sample struct {
	Bikes int
	Size  int
}

// classify parses and filters a raw line. It returns the bin key and sample
// for an accepted line, or the reason the line was dropped.
func (a *Aggregator) classify(line string) (schema.BinKey, Sample, schema.DropReason) {
	obs, err := ParseObservation(line)
	if err != nil {
		return schema.BinKey{}, Sample{}, schema.DropMalformed
	}
	if obs.Timestamp.Before(a.params.WindowStart) || !obs.Timestamp.Before(a.params.WindowEnd) {
		return schema.BinKey{}, Sample{}, schema.DropOutOfWindow
	}
	if !obs.Valid() {
		return schema.BinKey{}, Sample{}, schema.DropInvalid
	}
	key := schema.BinKey{
		StationID:   obs.StationID,
		GlobalBinID: int(obs.Timestamp.Sub(a.params.WindowStart) / a.params.BinDuration),
	}
	return key, Sample{Bikes: obs.BikesAvailable, Size: obs.Size()}, ""
}

// Package series orders bin aggregates into per-station timelines and splits
// them into a training history and a held-out test day.
package series

import (
	"cmp"
	"errors"
	"slices"

	"github.com/huangsam/bikebin/schema"
)

// ErrNotFound is returned by Lookahead when the target bin is missing.
var ErrNotFound = errors.New("target bin not found")

// Entry is one bin on a station timeline. BinID is the cross-day unique id for
// training entries and the daily bin id for test entries.
type Entry struct {
	BinID int
	schema.BinAggregate
}

// Series is one station's timeline, ascending by BinID.
type Series []Entry

// Index holds the chronological train and test timelines of every station.
type Index struct {
	TotalDays  int
	BinsPerDay int
	Train      map[int]Series
	Test       map[int]Series
}

// UniqueBinID maps a (day, daily bin) pair onto one continuous timeline.
func UniqueBinID(dayID, dailyBinID, binsPerDay int) int {
	return dayID*binsPerDay + dailyBinID
}

// DayID is the day part of a unique bin id.
func DayID(uniqueID, binsPerDay int) int {
	return uniqueID / binsPerDay
}

// DailyBinID is the within-day part of a unique bin id.
func DailyBinID(uniqueID, binsPerDay int) int {
	return uniqueID % binsPerDay
}

// Partition builds the index. Aggregates of the last day are held out for
// testing and keep their daily bin id; the rest are training history keyed by
// unique bin id.
func Partition(bins []schema.BinAggregate, totalDays, binsPerDay int) *Index {
	idx := &Index{
		TotalDays:  totalDays,
		BinsPerDay: binsPerDay,
		Train:      make(map[int]Series),
		Test:       make(map[int]Series),
	}
	testDay := totalDays - 1
	for _, b := range bins {
		if b.DayID == testDay {
			idx.Test[b.StationID] = append(idx.Test[b.StationID], Entry{BinID: b.DailyBinID, BinAggregate: b})
			continue
		}
		id := UniqueBinID(b.DayID, b.DailyBinID, binsPerDay)
		idx.Train[b.StationID] = append(idx.Train[b.StationID], Entry{BinID: id, BinAggregate: b})
	}
	for _, s := range idx.Train {
		s.sort()
	}
	for _, s := range idx.Test {
		s.sort()
	}
	return idx
}

func (s Series) sort() {
	slices.SortStableFunc(s, func(a, b Entry) int { return cmp.Compare(a.BinID, b.BinID) })
}

// Stations returns the station ids of the test day in ascending order.
func (idx *Index) Stations() []int {
	ids := make([]int, 0, len(idx.Test))
	for id := range idx.Test {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// TrainStations returns the station ids with training history in ascending order.
func (idx *Index) TrainStations() []int {
	ids := make([]int, 0, len(idx.Train))
	for id := range idx.Train {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Lookahead returns the entry exactly pw bins after s[k]. Because gaps shift
// positions left, only indices k+pw down to k+1 can hold it.
func Lookahead(s Series, k, pw int) (Entry, error) {
	if k < 0 || k >= len(s) || pw < 1 {
		return Entry{}, ErrNotFound
	}
	target := s[k].BinID + pw
	for i := min(k+pw, len(s)-1); i > k; i-- {
		if s[i].BinID == target {
			return s[i], nil
		}
	}
	return Entry{}, ErrNotFound
}

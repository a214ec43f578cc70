package agg

import (
	"fmt"
	"math"

	"github.com/huangsam/bikebin/schema"
)

// ErrEmptySize is returned when a group's modal station size is zero.
var ErrEmptySize = fmt.Errorf("%w: modal station size is zero", ErrDropGroup)

// CorrectSize returns the most frequent size. Ties go to the smallest size so
// the result never depends on arrival order. It returns 0 for no sizes.
func CorrectSize(sizes []int) int {
	counts := make(map[int]int, 4)
	for _, s := range sizes {
		counts[s]++
	}
	best, bestCount := 0, 0
	for size, n := range counts {
		if n > bestCount || (n == bestCount && size < best) {
			best, bestCount = size, n
		}
	}
	return best
}

// Quantize maps an average bike count to its availability category using the
// ratio threshold rule: a full station is always the top category, otherwise
// floor((average/size) / (1/categories)) clamped to [0, categories-1].
func Quantize(average float64, size, categories int) int {
	if size <= 0 || categories <= 0 {
		return 0
	}
	if average == float64(size) {
		return categories - 1
	}
	label := int(math.Floor((average / float64(size)) / (1 / float64(categories))))
	return ClampLabel(label, categories)
}

// ClampLabel bounds a label to the valid category range.
func ClampLabel(label, categories int) int {
	return min(max(label, 0), categories-1)
}

// reduceBin folds the samples of one (station, bin) group into an aggregate.
func reduceBin(key schema.BinKey, samples []Sample, binsPerDay, categories int) (schema.BinAggregate, error) {
	sizes := make([]int, len(samples))
	for i, s := range samples {
		sizes[i] = s.Size
	}
	size := CorrectSize(sizes)
	if size == 0 {
		return schema.BinAggregate{}, fmt.Errorf("bin %q: %w", FormatKey(key), ErrEmptySize)
	}

	var sum, n int
	for _, s := range samples {
		if s.Size == size {
			sum += s.Bikes
			n++
		}
	}
	average := float64(sum) / float64(n)

	return schema.BinAggregate{
		DayID:         key.GlobalBinID / binsPerDay,
		StationID:     key.StationID,
		DailyBinID:    key.GlobalBinID % binsPerDay,
		Average:       average,
		StationSize:   size,
		CategoryLabel: Quantize(average, size, categories),
	}, nil
}

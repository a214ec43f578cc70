package agg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/bikebin/schema"
)

// recordFields is the number of tab-separated fields of a persisted bin line:
// the dayId key followed by the five value fields.
const recordFields = 6

// FormatKey renders a bin key as "<stationId>\t<globalBinId>".
func FormatKey(k schema.BinKey) string {
	return strconv.Itoa(k.StationID) + "\t" + strconv.Itoa(k.GlobalBinID)
}

// ParseKey is the inverse of FormatKey.
func ParseKey(s string) (schema.BinKey, error) {
	station, bin, ok := strings.Cut(s, "\t")
	if !ok {
		return schema.BinKey{}, fmt.Errorf("bin key %q: missing tab separator", s)
	}
	sid, err := strconv.Atoi(station)
	if err != nil {
		return schema.BinKey{}, fmt.Errorf("bin key %q: bad station id: %w", s, err)
	}
	gid, err := strconv.Atoi(bin)
	if err != nil {
		return schema.BinKey{}, fmt.Errorf("bin key %q: bad bin id: %w", s, err)
	}
	return schema.BinKey{StationID: sid, GlobalBinID: gid}, nil
}

// EncodeRecord renders an aggregate as
// "<dayId>\t<stationId>\t<dailyBinId>\t<average>\t<stationSize>\t<categoryLabel>".
func EncodeRecord(b schema.BinAggregate) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(b.DayID))
	sb.WriteByte('\t')
	sb.WriteString(strconv.Itoa(b.StationID))
	sb.WriteByte('\t')
	sb.WriteString(strconv.Itoa(b.DailyBinID))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatFloat(b.Average, 'f', -1, 64))
	sb.WriteByte('\t')
	sb.WriteString(strconv.Itoa(b.StationSize))
	sb.WriteByte('\t')
	sb.WriteString(strconv.Itoa(b.CategoryLabel))
	return sb.String()
}

// DecodeRecord parses a line produced by EncodeRecord.
func DecodeRecord(line string) (schema.BinAggregate, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != recordFields {
		return schema.BinAggregate{}, fmt.Errorf("expected %d tab-separated fields, got %d", recordFields, len(fields))
	}

	ints := make([]int, 0, 5)
	for _, idx := range []int{0, 1, 2, 4, 5} {
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return schema.BinAggregate{}, fmt.Errorf("field %d: %w", idx+1, err)
		}
		ints = append(ints, v)
	}
	avg, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return schema.BinAggregate{}, fmt.Errorf("field 4: %w", err)
	}

	return schema.BinAggregate{
		DayID:         ints[0],
		StationID:     ints[1],
		DailyBinID:    ints[2],
		Average:       avg,
		StationSize:   ints[3],
		CategoryLabel: ints[4],
	}, nil
}

// ReadRecords reads persisted bin lines. Blank lines are ignored; any other
// unparsable line is an error since persisted output is produced by this tool.
func ReadRecords(r io.Reader) ([]schema.BinAggregate, error) {
	var bins []schema.BinAggregate
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, err := DecodeRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		bins = append(bins, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bin records: %w", err)
	}
	return bins, nil
}

// WriteRecords writes one persisted line per aggregate.
func WriteRecords(w io.Writer, bins []schema.BinAggregate) error {
	bw := bufio.NewWriter(w)
	for _, b := range bins {
		if _, err := bw.WriteString(EncodeRecord(b)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

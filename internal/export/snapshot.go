package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	scopeTotal  = "total"
	scopeMember = "member"
)

// SnapshotDocument is the JSON form of a snapshot export.
type SnapshotDocument struct {
	*aggregate.Snapshot
	Complete bool `json:"complete"`
}

// WriteSnapshot writes snap in format f. Tabular forms have one total row
// followed by one row per member in ranking order.
func WriteSnapshot(w io.Writer, f Format, snap *aggregate.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is required: %w", domain.ErrInvalidArgument)
	}
	switch f {
	case FormatCSV, "":
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(snapshotRecords(snap)); err != nil {
			return fmt.Errorf("writing snapshot csv: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeSnapshotXLSX(w, snap)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(SnapshotDocument{Snapshot: snap, Complete: true}); err != nil {
			return fmt.Errorf("writing snapshot json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q: %w", f, domain.ErrInvalidArgument)
}

func snapshotRecords(snap *aggregate.Snapshot) [][]string {
	start, end := formatTimestamp(snap.Start), formatTimestamp(snap.End)
	records := [][]string{SnapshotHeader, {
		scopeTotal, "", start, end,
		strconv.FormatInt(snap.TotalSeconds, 10),
		strconv.FormatInt(snap.BillableSeconds, 10),
		strconv.Itoa(snap.TasksCompletedCount),
		strconv.FormatInt(snap.AvgSecondsPerTask, 10),
		"",
		strconv.Itoa(snap.LogCount),
		"",
	}}
	for _, m := range snap.Members {
		records = append(records, []string{
			scopeMember, m.UserID, start, end,
			strconv.FormatInt(m.TotalSeconds, 10),
			strconv.FormatInt(m.BillableSeconds, 10),
			strconv.Itoa(m.TasksCompletedCount),
			strconv.FormatInt(m.AvgSecondsPerTask, 10),
			formatFloat(m.EfficiencyScore),
			strconv.Itoa(m.LogCount),
			formatFloat(m.MedianLogSeconds),
		})
	}
	return records
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeSnapshotXLSX(w io.Writer, snap *aggregate.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("creating xlsx stream: %w", err)
	}
	for i, rec := range snapshotRecords(snap) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, stringsToCells(rec)); err != nil {
			return fmt.Errorf("writing xlsx row: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing xlsx stream: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

// ParseSnapshotCSV reads a snapshot written by WriteSnapshot in CSV form.
// Scope filters are not part of the tabular form and come back empty.
func ParseSnapshotCSV(r io.Reader) (*aggregate.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SnapshotHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	for i, col := range SnapshotHeader {
		if header[i] != col {
			return nil, fmt.Errorf("snapshot column %d is %q, want %q: %w", i+1, header[i], col, domain.ErrInvalidArgument)
		}
	}

	snap := &aggregate.Snapshot{Members: []aggregate.MemberStats{}}
	sawTotal := false
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot line %d: %w", line, err)
		}
		p := &recordParser{rec: rec}
		switch rec[0] {
		case scopeTotal:
			if sawTotal {
				return nil, fmt.Errorf("line %d: duplicate total row: %w", line, domain.ErrInvalidArgument)
			}
			sawTotal = true
			snap.Start = p.parseTime(2)
			snap.End = p.parseTime(3)
			snap.TotalSeconds = p.parseInt64(4)
			snap.BillableSeconds = p.parseInt64(5)
			snap.TasksCompletedCount = p.parseInt(6)
			snap.AvgSecondsPerTask = p.parseInt64(7)
			snap.LogCount = p.parseInt(9)
		case scopeMember:
			snap.Members = append(snap.Members, aggregate.MemberStats{
				UserID:              rec[1],
				TotalSeconds:        p.parseInt64(4),
				BillableSeconds:     p.parseInt64(5),
				TasksCompletedCount: p.parseInt(6),
				AvgSecondsPerTask:   p.parseInt64(7),
				EfficiencyScore:     p.parseFloat(8),
				LogCount:            p.parseInt(9),
				MedianLogSeconds:    p.parseFloat(10),
			})
		default:
			return nil, fmt.Errorf("line %d: unknown scope %q: %w", line, rec[0], domain.ErrInvalidArgument)
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, p.err)
		}
	}
	if !sawTotal {
		return nil, fmt.Errorf("snapshot has no total row: %w", domain.ErrInvalidArgument)
	}
	return snap, nil
}

// recordParser keeps the first conversion error so a row can be decoded
// field by field without checking each one.
type recordParser struct {
	rec []string
	err error
}

func (p *recordParser) fail(i int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: %v: %w", SnapshotHeader[i], err, domain.ErrInvalidArgument)
	}
}

func (p *recordParser) parseInt64(i int) int64 {
	v, err := strconv.ParseInt(p.rec[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *recordParser) parseInt(i int) int {
	return int(p.parseInt64(i))
}

func (p *recordParser) parseFloat(i int) float64 {
	if p.rec[i] == "" {
		return 0
	}
	v, err := strconv.ParseFloat(p.rec[i], 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *recordParser) parseTime(i int) time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.rec[i])
	if err != nil {
		p.fail(i, err)
	}
	return t
}

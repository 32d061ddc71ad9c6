package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/aggregate"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func sampleLogs() []*domain.TimeLog {
	return []*domain.TimeLog{
		testutil.NewTestTimeLog("alice", "T1", 3600,
			testutil.WithStart(exportDay.Add(9*time.Hour)),
			testutil.WithDescription(`fixed "login", then
wrote notes`)),
		testutil.NewTestTimeLog("bob", "T2", 1800,
			testutil.WithStart(exportDay.Add(10*time.Hour)),
			testutil.WithBillable(false)),
		testutil.NewTestTimeLog("bob", "T1", 600,
			testutil.WithStart(exportDay.Add(11*time.Hour))),
	}
}

func writeLogs(t *testing.T, f Format, flushRows int, logs []*domain.TimeLog) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewLogWriter(&buf, f, flushRows)
	require.NoError(t, err)
	for _, l := range logs {
		require.NoError(t, w.WriteLog(l))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, len(logs), w.Rows())
	return buf.Bytes()
}

func TestLogCSV_HeaderAndEscaping(t *testing.T) {
	logs := sampleLogs()
	out := writeLogs(t, FormatCSV, 0, logs)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, TimeLogHeader, records[0])

	first := records[1]
	assert.Equal(t, logs[0].ID, first[0])
	assert.Equal(t, "3600", first[6])
	assert.Equal(t, "true", first[7])
	assert.Equal(t, logs[0].Description, first[8], "quotes, commas and newlines survive")
	assert.Equal(t, "false", records[2][7])
}

type flushCounter struct {
	bytes.Buffer
	flushes int
}

func (f *flushCounter) Flush() { f.flushes++ }

func TestLogCSV_FlushesPeriodically(t *testing.T) {
	var dst flushCounter
	w, err := NewLogWriter(&dst, FormatCSV, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, w.WriteLog(testutil.NewTestTimeLog("alice", "T1", 60)))
	}
	assert.Equal(t, 2, dst.flushes)
	assert.Equal(t, 5, strings.Count(dst.String(), "\n"), "header and four rows reached the writer")

	require.NoError(t, w.Close())
	assert.Equal(t, 3, dst.flushes)
}

func TestLogJSON_CompleteTrailer(t *testing.T) {
	logs := sampleLogs()
	out := writeLogs(t, FormatJSON, 1, logs)

	var doc LogDocument
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.True(t, doc.Complete)
	assert.Equal(t, 3, doc.Count)
	require.Len(t, doc.Logs, 3)
	assert.Equal(t, logs[0].Description, doc.Logs[0].Description)
	assert.True(t, logs[1].StartTime.Equal(doc.Logs[1].StartTime))
	assert.False(t, doc.Logs[1].Billable)
}

func TestLogJSON_TruncatedStreamIsDetectable(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewLogWriter(&buf, FormatJSON, 1)
	require.NoError(t, err)
	for _, l := range sampleLogs() {
		require.NoError(t, w.WriteLog(l))
	}
	// No Close: the export failed mid-stream.

	var doc LogDocument
	err = json.Unmarshal(buf.Bytes(), &doc)
	assert.Error(t, err)
	assert.False(t, doc.Complete)
	assert.NotContains(t, buf.String(), "complete")
}

func TestLogJSON_EmptyExport(t *testing.T) {
	out := writeLogs(t, FormatJSON, 0, nil)

	var doc LogDocument
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.True(t, doc.Complete)
	assert.Zero(t, doc.Count)
	assert.Empty(t, doc.Logs)
}

func TestLogXLSX(t *testing.T) {
	logs := sampleLogs()
	out := writeLogs(t, FormatXLSX, 0, logs)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, TimeLogHeader, rows[0])
	assert.Equal(t, logs[1].ID, rows[2][0])
	assert.Equal(t, "1800", rows[2][6])
}

func TestNewLogWriter_UnknownFormat(t *testing.T) {
	_, err := NewLogWriter(&bytes.Buffer{}, Format("pdf"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestParseFormatAndSubject(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "xlsx", f.Extension())

	_, err = ParseFormat("yaml")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	s, err := ParseSubject("snapshot")
	require.NoError(t, err)
	assert.Equal(t, SubjectSnapshot, s)

	_, err = ParseSubject("members")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func sampleSnapshot(t *testing.T) *aggregate.Snapshot {
	t.Helper()
	rng := domain.TimeRange{Start: exportDay, End: exportDay.AddDate(0, 0, 1)}
	snap, err := aggregate.Compute(sampleLogs(), []string{"T1"}, rng, aggregate.Scope{},
		aggregate.Options{ReferenceSecondsPerTask: aggregate.DefaultReferenceSecondsPerTask})
	require.NoError(t, err)
	return snap
}

func TestSnapshotCSV_RoundTrip(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, FormatCSV, snap))

	parsed, err := ParseSnapshotCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap, parsed)
}

func TestSnapshotJSON_Complete(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, FormatJSON, snap))

	var doc struct {
		TotalSeconds int64 `json:"totalSeconds"`
		Members      []struct {
			UserID string `json:"userId"`
		} `json:"members"`
		Complete bool `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, doc.Complete)
	assert.Equal(t, snap.TotalSeconds, doc.TotalSeconds)
	require.Len(t, doc.Members, 2)
	assert.Equal(t, "alice", doc.Members[0].UserID)
}

func TestSnapshotXLSX(t *testing.T) {
	snap := sampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, FormatXLSX, snap))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "total", rows[1][0])
	assert.Equal(t, "member", rows[2][0])
}

func TestParseSnapshotCSV_Rejects(t *testing.T) {
	header := strings.Join(SnapshotHeader, ",")
	total := "total,,2025-03-10T00:00:00Z,2025-03-11T00:00:00Z,10,5,1,10,,2,"

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", strings.Replace(header, "scope", "kind", 1) + "\n" + total},
		{"no total", header + "\n"},
		{"duplicate total", header + "\n" + total + "\n" + total},
		{"bad number", header + "\n" + strings.Replace(total, ",10,5,", ",ten,5,", 1)},
		{"unknown scope", header + "\n" + strings.Replace(total, "total", "team", 1)},
		{"short row", header + "\ntotal,,x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshotCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// LogWriter streams time logs in one format. Close must be called after the
// last row; output without a successful Close is incomplete.
type LogWriter interface {
	WriteLog(l *domain.TimeLog) error
	Close() error
	Rows() int
}

// flusher matches writers that can push buffered bytes to the client, such
// as http.ResponseWriter.
type flusher interface {
	Flush()
}

// NewLogWriter returns a LogWriter for f. Rows are flushed to w every
// flushRows rows; non-positive values use DefaultFlushRows.
func NewLogWriter(w io.Writer, f Format, flushRows int) (LogWriter, error) {
	if flushRows <= 0 {
		flushRows = DefaultFlushRows
	}
	switch f {
	case FormatCSV, "":
		return newCSVLogWriter(w, flushRows)
	case FormatXLSX:
		return newXLSXLogWriter(w)
	case FormatJSON:
		return newJSONLogWriter(w, flushRows)
	}
	return nil, fmt.Errorf("unknown export format %q: %w", f, domain.ErrInvalidArgument)
}

func timeLogRecord(l *domain.TimeLog) []string {
	return []string{
		l.ID,
		l.SessionID,
		l.TaskID,
		l.UserID,
		formatTimestamp(l.StartTime),
		formatTimestamp(l.EndTime),
		strconv.FormatInt(l.DurationSeconds, 10),
		strconv.FormatBool(l.IsBillable),
		l.Description,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func pushFlush(w io.Writer) {
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
}

// CSV

type csvLogWriter struct {
	dst       io.Writer
	w         *csv.Writer
	flushRows int
	rows      int
}

func newCSVLogWriter(w io.Writer, flushRows int) (*csvLogWriter, error) {
	cw := &csvLogWriter{dst: w, w: csv.NewWriter(w), flushRows: flushRows}
	if err := cw.w.Write(TimeLogHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	return cw, nil
}

func (c *csvLogWriter) WriteLog(l *domain.TimeLog) error {
	if err := c.w.Write(timeLogRecord(l)); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	c.rows++
	if c.rows%c.flushRows == 0 {
		c.w.Flush()
		if err := c.w.Error(); err != nil {
			return fmt.Errorf("flushing csv: %w", err)
		}
		pushFlush(c.dst)
	}
	return nil
}

func (c *csvLogWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	pushFlush(c.dst)
	return nil
}

func (c *csvLogWriter) Rows() int { return c.rows }

// XLSX

type xlsxLogWriter struct {
	dst  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	rows int
}

func newXLSXLogWriter(w io.Writer) (*xlsxLogWriter, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating xlsx stream: %w", err)
	}
	if err := sw.SetRow("A1", stringsToCells(TimeLogHeader)); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing xlsx header: %w", err)
	}
	return &xlsxLogWriter{dst: w, file: f, sw: sw}, nil
}

func (x *xlsxLogWriter) WriteLog(l *domain.TimeLog) error {
	cell, err := excelize.CoordinatesToCellName(1, x.rows+2)
	if err != nil {
		return err
	}
	row := []interface{}{
		l.ID,
		l.SessionID,
		l.TaskID,
		l.UserID,
		formatTimestamp(l.StartTime),
		formatTimestamp(l.EndTime),
		l.DurationSeconds,
		l.IsBillable,
		l.Description,
	}
	if err := x.sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("writing xlsx row: %w", err)
	}
	x.rows++
	return nil
}

// Close finalises the workbook. The zip container can only be written once
// every row is known, so nothing reaches dst before Close.
func (x *xlsxLogWriter) Close() error {
	defer x.file.Close()
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("flushing xlsx stream: %w", err)
	}
	if _, err := x.file.WriteTo(x.dst); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	pushFlush(x.dst)
	return nil
}

func (x *xlsxLogWriter) Rows() int { return x.rows }

func stringsToCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// JSON

// LogRecord is the JSON form of one exported time log.
type LogRecord struct {
	LogID           string    `json:"logId"`
	SessionID       string    `json:"sessionId"`
	TaskID          string    `json:"taskId"`
	UserID          string    `json:"userId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationSeconds int64     `json:"durationSeconds"`
	Billable        bool      `json:"billable"`
	Description     string    `json:"description"`
}

// LogDocument is the complete JSON log export. Complete is only written
// after the last row, so a truncated stream never decodes with it set.
type LogDocument struct {
	Logs     []LogRecord `json:"logs"`
	Count    int         `json:"count"`
	Complete bool        `json:"complete"`
}

type jsonLogWriter struct {
	dst       io.Writer
	buf       *bufio.Writer
	flushRows int
	rows      int
}

func newJSONLogWriter(w io.Writer, flushRows int) (*jsonLogWriter, error) {
	jw := &jsonLogWriter{dst: w, buf: bufio.NewWriter(w), flushRows: flushRows}
	if _, err := jw.buf.WriteString(`{"logs":[`); err != nil {
		return nil, fmt.Errorf("writing json header: %w", err)
	}
	return jw, nil
}

func (j *jsonLogWriter) WriteLog(l *domain.TimeLog) error {
	data, err := json.Marshal(LogRecord{
		LogID:           l.ID,
		SessionID:       l.SessionID,
		TaskID:          l.TaskID,
		UserID:          l.UserID,
		StartTime:       l.StartTime.UTC(),
		EndTime:         l.EndTime.UTC(),
		DurationSeconds: l.DurationSeconds,
		Billable:        l.IsBillable,
		Description:     l.Description,
	})
	if err != nil {
		return fmt.Errorf("encoding log %s: %w", l.ID, err)
	}
	if j.rows > 0 {
		if err := j.buf.WriteByte(','); err != nil {
			return err
		}
	}
	if _, err := j.buf.Write(data); err != nil {
		return fmt.Errorf("writing json row: %w", err)
	}
	j.rows++
	if j.rows%j.flushRows == 0 {
		if err := j.buf.Flush(); err != nil {
			return fmt.Errorf("flushing json: %w", err)
		}
		pushFlush(j.dst)
	}
	return nil
}

func (j *jsonLogWriter) Close() error {
	if _, err := fmt.Fprintf(j.buf, `],"count":%d,"complete":true}`+"\n", j.rows); err != nil {
		return fmt.Errorf("writing json trailer: %w", err)
	}
	if err := j.buf.Flush(); err != nil {
		return fmt.Errorf("flushing json: %w", err)
	}
	pushFlush(j.dst)
	return nil
}

func (j *jsonLogWriter) Rows() int { return j.rows }

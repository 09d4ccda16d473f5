package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/raykavin/pricechart/pkg/core"
)

var (
	defaultPrimaryHeaders = map[string]int{
		"date": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5,
	}
	defaultPredictionHeaders = map[string]int{
		"date": 0, "value": 1,
	}
)

// parseHeaders returns the column index of every known header. A first row
// that starts with a date is data, the default layout applies then.
func parseHeaders(row []string, defaults map[string]int) (headers map[string]int, hasHeader bool) {
	if len(row) == 0 {
		return defaults, false
	}
	if _, err := core.ParseDate(row[0]); err == nil {
		return defaults, false
	}

	headers = make(map[string]int, len(row))
	for index, header := range row {
		headers[strings.ToLower(strings.TrimSpace(header))] = index
	}
	return headers, true
}

func readRows(r io.Reader, defaults map[string]int) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, defaults, nil
	}

	headers, hasHeader := parseHeaders(rows[0], defaults)
	if hasHeader {
		rows = rows[1:]
	}
	if _, ok := headers["date"]; !ok {
		return nil, nil, fmt.Errorf("%w: missing date column", ErrFormat)
	}

	return rows, headers, nil
}

// cell parses a numeric column, unparseable or missing cells become NaN so the
// normalizer discards the record
func cell(row []string, headers map[string]int, name string) core.Number {
	index, ok := headers[name]
	if !ok || index >= len(row) {
		return core.Number(math.NaN())
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(row[index]), 64)
	if err != nil {
		return core.Number(math.NaN())
	}
	return core.Number(value)
}

func column(row []string, headers map[string]int, name string) string {
	index, ok := headers[name]
	if !ok || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// ReadPrimaryCSV reads date,open,high,low,close[,volume] rows
func ReadPrimaryCSV(r io.Reader) ([]core.RawRecord, error) {
	rows, headers, err := readRows(r, defaultPrimaryHeaders)
	if err != nil {
		return nil, err
	}

	_, hasVolume := headers["volume"]

	records := make([]core.RawRecord, 0, len(rows))
	for _, row := range rows {
		record := core.RawRecord{
			Date:  column(row, headers, "date"),
			Open:  cell(row, headers, "open"),
			High:  cell(row, headers, "high"),
			Low:   cell(row, headers, "low"),
			Close: cell(row, headers, "close"),
		}
		if hasVolume {
			volume := cell(row, headers, "volume")
			record.Volume = &volume
		}
		records = append(records, record)
	}

	return records, nil
}

// ReadPredictionCSV reads date,value rows
func ReadPredictionCSV(r io.Reader) ([]core.PredictionRecord, error) {
	rows, headers, err := readRows(r, defaultPredictionHeaders)
	if err != nil {
		return nil, err
	}

	records := make([]core.PredictionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, core.PredictionRecord{
			Date:  column(row, headers, "date"),
			Value: cell(row, headers, "value"),
		})
	}

	return records, nil
}

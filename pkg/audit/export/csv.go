package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"mercator-hq/rulekit/pkg/audit"
)

// csvHeader lists the columns in the order recordToRow produces them.
var csvHeader = []string{
	"id", "evaluation_id", "ruleset", "version", "rule_id",
	"success", "kind", "message", "consequences",
	"input_hash", "duration_ms", "timestamp",
}

// CSVExporter writes audit records as CSV, one row per record.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes records to w in CSV format. Consequences are written as a
// JSON object in a single column.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := recordToRow(record)
		if err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records received on recordsCh until the channel is
// closed or ctx is done. Output is flushed every 100 records.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return audit.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
				return nil
			}

			row, err := recordToRow(record)
			if err != nil {
				return audit.NewExportError("csv", count, err)
			}
			if err := writer.Write(row); err != nil {
				return audit.NewExportError("csv", count, err)
			}
			count++

			if count%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", count, err)
				}
			}
		}
	}
}

func recordToRow(record *audit.Record) ([]string, error) {
	consequences := ""
	if len(record.Consequences) > 0 {
		data, err := json.Marshal(record.Consequences)
		if err != nil {
			return nil, err
		}
		consequences = string(data)
	}

	timestamp := ""
	if !record.Timestamp.IsZero() {
		timestamp = record.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	return []string{
		record.ID,
		record.EvaluationID,
		record.Ruleset,
		record.Version,
		record.RuleID,
		strconv.FormatBool(record.Success),
		record.Kind,
		record.Message,
		consequences,
		record.InputHash,
		strconv.FormatInt(record.Duration.Milliseconds(), 10),
		timestamp,
	}, nil
}

// Package export writes audit records as JSON or CSV.
//
//	exporter := export.NewJSONExporter(true)
//	if err := exporter.Export(ctx, records, os.Stdout); err != nil {
//		return err
//	}
//
// Both exporters also offer ExportStream, which reads records from a channel
// so large result sets never sit in memory at once. Failures are returned as
// *audit.ExportError.
package export

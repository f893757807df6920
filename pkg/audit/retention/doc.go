// Package retention prunes audit records by age and by count.
//
//	pruner := retention.NewPruner(store, &retention.Config{
//		RetentionDays: 30,
//		PruneSchedule: "0 3 * * *",
//		MaxRecords:    100000,
//	}, logger, collector)
//
//	if err := pruner.Start(ctx); err != nil {
//		return err
//	}
//	defer pruner.Stop()
//
// Prune can also be called directly. A RetentionDays of zero keeps records
// forever and an empty PruneSchedule leaves the scheduler idle. When
// ArchiveBeforeDelete is set, records are written as JSON to ArchivePath
// before they are deleted.
package retention

// Package recorder writes rule outcomes to audit storage asynchronously.
//
// The evaluation engine calls Record once per rule. Records are queued on a
// buffered channel and a single worker stores them, so a slow database only
// shows up as queue pressure. Close drains the queue before returning.
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig(), logger, collector)
//	defer rec.Close()
//
//	err := rec.Record(ctx, recorder.Outcome{
//		EvaluationID: evalID,
//		Ruleset:      "travel",
//		RuleID:       "covid",
//		Success:      true,
//		Kind:         "none",
//	})
//
// The input document is never stored, only its SHA-256. Messages and rendered
// consequences longer than MaxFieldLength are truncated.
package recorder

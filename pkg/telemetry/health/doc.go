// Package health serves the liveness, readiness and version endpoints of
// long-running rulekit commands.
//
// Readiness is the conjunction of registered checks. RulesetCheck reports
// whether rules are loaded and whether the last reload succeeded;
// StorageCheck reports whether the audit store answers queries.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("ruleset", health.RulesetCheck(registry))
//	checker.RegisterCheck("audit", health.StorageCheck(store))
//	health.Register(mux, checker, health.VersionInfo{Version: version})
package health

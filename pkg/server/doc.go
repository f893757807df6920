// Package server runs the HTTP endpoint long-running rulekit commands expose
// for metrics and health probes.
//
// The server wraps a handler with request ID, logging and panic recovery
// middleware and manages its lifecycle: Start blocks until the context is
// done and then shuts down gracefully.
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", collector.Handler())
//	health.Register(mux, checker, info)
//
//	srv := server.New(server.Config{Address: ":9090"}, mux, logger)
//	if err := srv.Start(ctx); err != nil {
//		return err
//	}
package server

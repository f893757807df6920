package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo is the body of the /version endpoint. An empty GoVersion is
// filled in from the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Register mounts /health (liveness), /ready (readiness, 503 while any
// check fails) and /version on mux.
//
// A degraded /ready response looks like:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "rules": {"status": "unhealthy", "message": "no ruleset loaded"},
//	        "audit": {"status": "ok"}
//	    },
//	    "timestamp": "2026-10-18T10:30:00Z"
//	}
func Register(mux *http.ServeMux, checker *Checker, info VersionInfo) {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}

	mux.HandleFunc("/health", getOnly(func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, checker.CheckLiveness(r.Context()))
	}))
	mux.HandleFunc("/ready", getOnly(func(w http.ResponseWriter, r *http.Request) {
		status := checker.CheckReadiness(r.Context())
		if status.Status == StatusReady {
			respond(w, r, http.StatusOK, status)
			return
		}
		respond(w, r, http.StatusServiceUnavailable, status)
	}))
	mux.HandleFunc("/version", getOnly(func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, info)
	}))
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			next(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func respond(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

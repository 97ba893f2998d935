package httpapi

import "net/http"

// NewMux returns the raw mux so serve mode can still attach /shutdown
// (it needs the server and its token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Store: d.Store}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Report tables
	th := TablesHandler{Store: d.Store}
	mux.HandleFunc("/tables", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: th.List,
	}))
	mux.HandleFunc("/tables/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: th.GetByPath, // expects /tables/{name}
	}))

	// Pipeline runs
	rh := RunHandler{Runner: d.Runner, Store: d.Store, Log: d.Log}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))
	mux.HandleFunc("/run/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Recent,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/portal", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetPortalPassword,
		http.MethodDelete: sh.DeletePortalPassword,
	}))

	dh := DBHandler{Store: d.Store}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: localOnly(dh.Checkpoint),
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps the mux with the standard middleware chain.
func Handler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover(d.Log), AccessLog(d.Log), Cors)
}

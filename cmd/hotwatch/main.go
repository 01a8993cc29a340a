// Entry point for the hotwatch HTTP service: chi router over the hotlist
// engine. The crawler POSTs whole cycles; the report renderer and push
// pipeline read aggregated items back out.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/hotwatch/dbopen"
	"github.com/hazyhaar/hotwatch/hotlist"
)

func main() {
	cfgPath := env("CONFIG_FILE", "")
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.DBPath = env("DB_PATH", cfg.DBPath)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := hotlist.New(db, &hotlist.Config{MaxTitleLen: cfg.MaxTitleLen}, logger)
	if err != nil {
		slog.Error("init service", "error", err)
		os.Exit(1)
	}

	// Sync the configured ruleset at startup so the active groups always
	// reflect the deployed config.
	if len(cfg.WordGroups) > 0 {
		n, err := svc.SyncWordGroups(ctx, cfg.groupInputs())
		if err != nil {
			slog.Error("sync word groups", "error", err)
			os.Exit(1)
		}
		slog.Info("ruleset loaded", "groups", n)
	}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Crawler boundary: one POST per crawl cycle.
	r.Post("/api/cycles", func(w http.ResponseWriter, r *http.Request) {
		var cycle hotlist.CrawlCycle
		if err := json.NewDecoder(r.Body).Decode(&cycle); err != nil {
			writeError(w, 400, err)
			return
		}
		result, err := svc.IngestCycle(r.Context(), &cycle)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 201, result)
	})

	r.Get("/api/items/today", func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.TodayItems(r.Context(), queryCSV(r, "platforms"),
			queryInt64(r, "today_start", startOfToday()), queryInt64(r, "new_since", 0))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, items)
	})

	r.Get("/api/items/new", func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.NewItemsSince(r.Context(), queryCSV(r, "platforms"),
			queryInt64(r, "since", 0))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, items)
	})

	r.Get("/api/items/search", func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchKeyword(r.Context(), r.URL.Query().Get("q"),
			queryInt64(r, "today_start", startOfToday()), queryCSV(r, "platforms"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, items)
	})

	// Renderer boundary: today's items classified into word groups.
	r.Get("/api/reports/today", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		items, err := svc.TodayItems(ctx, queryCSV(r, "platforms"),
			queryInt64(r, "today_start", startOfToday()), queryInt64(r, "new_since", 0))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		groups, err := svc.WordGroups(ctx)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]any{
			"items":  items,
			"groups": hotlist.Classify(items, groups),
		})
	})

	r.Get("/api/sources", func(w http.ResponseWriter, r *http.Request) {
		sources, err := svc.Sources(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, sources)
	})

	r.Delete("/api/sources/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RetireSource(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, map[string]string{"status": "retired"})
	})

	r.Get("/api/wordgroups", func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.WordGroups(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, groups)
	})

	r.Post("/api/wordgroups/sync", func(w http.ResponseWriter, r *http.Request) {
		var groups []*hotlist.WordGroupInput
		if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
			writeError(w, 400, err)
			return
		}
		n, err := svc.SyncWordGroups(r.Context(), groups)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 200, map[string]int{"synced": n})
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := svc.RecentSessions(r.Context(), queryInt(r, "limit", 10))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, sessions)
	})

	r.Post("/api/pushes", func(w http.ResponseWriter, r *http.Request) {
		var rec hotlist.PushRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeError(w, 400, err)
			return
		}
		id, err := svc.RecordPush(r.Context(), &rec)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, 201, map[string]string{"id": id})
	})

	r.Get("/api/pushes", func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.PushesSince(r.Context(), queryInt64(r, "since", startOfToday()))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, records)
	})

	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		totals, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, totals)
	})

	r.Get("/api/stats/daily", func(w http.ResponseWriter, r *http.Request) {
		start, err := queryDate(r, "start", time.Now().AddDate(0, 0, -7))
		if err != nil {
			writeError(w, 400, err)
			return
		}
		end, err := queryDate(r, "end", time.Now())
		if err != nil {
			writeError(w, 400, err)
			return
		}
		stats, err := svc.DailyStats(r.Context(), start, end)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, stats)
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("hotwatch listening", "addr", cfg.Listen, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
}

func statusFor(err error) int {
	if errors.Is(err, hotlist.ErrInvalidInput) {
		return 400
	}
	if errors.Is(err, hotlist.ErrNotFound) {
		return 404
	}
	return 500
}

func startOfToday() int64 {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UnixMilli()
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func queryInt64(r *http.Request, key string, def int64) int64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func queryCSV(r *http.Request, key string) []string {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func queryDate(r *http.Request, key string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", s)
}

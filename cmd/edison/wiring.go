package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/edison-dev/edison/internal/audit"
	"github.com/edison-dev/edison/internal/config"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/session"
	"github.com/edison-dev/edison/internal/task"
)

// env bundles every core dependency one CLI invocation needs, wired
// once per command so subcommands never construct their own
// repositories or re-walk the filesystem for the repo root.
type env struct {
	cfg         *config.Config
	resolver    *paths.Resolver
	audit       *audit.Sink
	log         *slog.Logger
	sessionRepo *entity.Repository[*session.Session]
	taskRepo    *entity.Repository[*task.Task]
}

// load resolves config and the repo root and wires the Session/Task
// repositories to the audit sink, matching spec.md §3's ownership
// split (C4 owns Session, C2+task own Task) while sharing one audit
// sink across both streams.
func (a *appContext) load() (*env, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	resolver, err := paths.Resolve(".")
	if err != nil {
		return nil, err
	}
	sink := audit.NewSink(resolver)
	logger := newLogger(cfg.Log.Level)

	sessionRepo := session.NewRepository(resolver, auditAdapter(sink, "sessions"))
	taskRepo := task.NewRepository(resolver, task.SessionIDLookup(resolver), auditAdapter(sink, "tasks"))

	return &env{
		cfg:         cfg,
		resolver:    resolver,
		audit:       sink,
		log:         logger,
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
	}, nil
}

// auditAdapter bridges entity.AuditFunc's fixed TransitionEvent shape
// to audit.Sink's generic per-stream Append, so every entity kind's
// transitions land in a named JSONL stream (spec.md §6's
// process-events/transitions streams).
func auditAdapter(sink *audit.Sink, stream string) entity.AuditFunc {
	return func(ev entity.TransitionEvent) error {
		return sink.Append(stream, ev)
	}
}

// resolveSessionID runs the five-step precedence pipeline for a
// command that accepts an explicit --session flag, with no
// owner-lookup convention configured (spec.md §4.4 lists it as the
// last-resort step; Edison has none to offer by default).
func (e *env) resolveSessionID(explicit string) (string, session.Source) {
	return session.ResolveSessionID(explicit, e.resolver, nil)
}

// printJSON writes v as indented JSON to stdout, the stable shape
// every --json flag in spec.md §6 promises.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/scheduler"
	"github.com/edison-dev/edison/internal/session"
	"github.com/edison-dev/edison/internal/storage"
)

// newSessionCmd wires the session lifecycle operations from spec.md
// §6's CLI surface: create, status, next, whoami, continuation
// show/set/clear, resume, stale --list, cleanup-stale, daemon.
func newSessionCmd(app *appContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage orchestration sessions",
	}
	cmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "explicit session id (overrides inference)")

	var actor string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a new active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := e.resolveSessionID(sessionFlag)
			if id == "" {
				// create is the one command that mints a new identity
				// rather than resolving an existing one, so an
				// unresolved pipeline falls through to a fresh id
				// instead of failing.
				id = uuid.NewString()
				src = session.SourceGenerated
			}
			s, err := session.Create(e.sessionRepo, id, actor, e.resolver.Root)
			if err != nil {
				return err
			}
			if e.resolver.IsLinkedWorktree() {
				if werr := storage.WriteTextAtomic(e.resolver.SessionIDFile(), []byte(id)); werr != nil {
					return werr
				}
			}
			return printJSON(map[string]any{"session": s, "id_source": string(src)})
		},
	}
	create.Flags().StringVar(&actor, "actor", "orchestrator", "actor kind creating this session")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show a session's current record",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			s, err := e.sessionRepo.Load(id)
			if err != nil {
				return err
			}
			return printJSON(s)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Compute the continuation payload for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			payload, err := computeNext(e, id)
			if err != nil {
				return err
			}
			return printJSON(payload)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Resolve the caller's session id and actor kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, idSrc := e.resolveSessionID(sessionFlag)
			actorKind, actorSrc := session.ResolveActor(nil)
			return printJSON(map[string]string{
				"session_id":     id,
				"session_source": string(idSrc),
				"actor":          actorKind,
				"actor_source":   string(actorSrc),
			})
		},
	})

	cmd.AddCommand(newContinuationCmd(app, &sessionFlag))

	cmd.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "Reactivate a stale session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			if err := session.Resume(e.sessionRepo, id); err != nil {
				return err
			}
			s, err := e.sessionRepo.Load(id)
			if err != nil {
				return err
			}
			return printJSON(s)
		},
	})

	var listStale bool
	staleCmd := &cobra.Command{
		Use:   "stale",
		Short: "List sessions past the inactivity threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !listStale {
				return edisonerr.New(edisonerr.KindValidationError, "stale", "pass --list")
			}
			e, err := app.load()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(e.resolver.SessionsDir())
			if err != nil && !os.IsNotExist(err) {
				return edisonerr.IOError(e.resolver.SessionsDir(), err)
			}
			threshold := time.Duration(e.cfg.Session.Recovery.StaleAfterSeconds) * time.Second
			now := time.Now()
			var stale []string
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				s, err := e.sessionRepo.Load(entry.Name())
				if err != nil || s.Status != session.StatusActive {
					continue
				}
				if session.IsStale(s, threshold, now) {
					stale = append(stale, s.ID)
				}
			}
			return printJSON(stale)
		},
	}
	staleCmd.Flags().BoolVar(&listStale, "list", false, "list stale sessions")
	cmd.AddCommand(staleCmd)

	// cleanup-stale and cleanup-expired are aliases for the same sweep
	// operation (resolved Open Question, see DESIGN.md).
	cleanup := &cobra.Command{
		Use:     "cleanup-stale",
		Aliases: []string{"cleanup-expired"},
		Short:   "Release stale sessions' claimed tasks back to the ready pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			threshold := time.Duration(e.cfg.Session.Recovery.StaleAfterSeconds) * time.Second
			result, err := session.Sweep(e.resolver, e.sessionRepo, e.taskRepo, threshold)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.AddCommand(cleanup)

	cmd.AddCommand(&cobra.Command{
		Use:   "daemon",
		Short: "Run the background session-staleness sweep on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			if !e.cfg.Session.Recovery.AutoSweep {
				e.log.Info("session daemon: session.recovery.autoSweep is disabled, nothing to run")
				return nil
			}

			job := &session.SweepJob{
				Resolver:    e.resolver,
				SessionRepo: e.sessionRepo,
				TaskRepo:    e.taskRepo,
				Threshold:   time.Duration(e.cfg.Session.Recovery.StaleAfterSeconds) * time.Second,
			}
			sched := scheduler.NewScheduler(e.log)
			sched.AddJob(job, time.Duration(e.cfg.Session.Recovery.SweepIntervalHours)*time.Hour)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched.Start(ctx)
			e.log.Info("session daemon: started", "sweep_interval_hours", e.cfg.Session.Recovery.SweepIntervalHours)
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	})

	return cmd
}

// requireSessionID resolves an id for commands that need one to
// already exist (as opposed to `session create`, which mints one).
func requireSessionID(e *env, explicit string) (string, session.Source) {
	return e.resolveSessionID(explicit)
}

func unresolvedSessionErr(src session.Source) error {
	return edisonerr.ResolutionError("session", "no session id could be resolved (source: "+string(src)+")",
		"omit --session unless resuming, or set EDISON_SESSION_ID to the session you created")
}

func newContinuationCmd(app *appContext, sessionFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continuation",
		Short: "Inspect or override this session's continuation mode",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the session's continuation override",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, *sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			s, err := e.sessionRepo.Load(id)
			if err != nil {
				return err
			}
			return printJSON(map[string]string{
				"session_id":        id,
				"default_mode":      e.cfg.Continuation.DefaultMode,
				"session_override":  s.ContinuationMode,
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [off|soft|hard]",
		Short: "Set the session's continuation mode override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := args[0]
			switch mode {
			case "off", "soft", "hard":
			default:
				return edisonerr.New(edisonerr.KindValidationError, mode, "continuation mode must be off, soft, or hard")
			}
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, *sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			return session.SetContinuationMode(e.sessionRepo, id, mode)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the session's continuation mode override",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			id, src := requireSessionID(e, *sessionFlag)
			if id == "" {
				return unresolvedSessionErr(src)
			}
			return session.SetContinuationMode(e.sessionRepo, id, "")
		},
	})
	return cmd
}

// computeNext gathers the counts continuation.Compute needs from the
// task repository and runs the fail-open computation, mirroring the
// control flow spec.md §4.6 describes for C6.
func computeNext(e *env, sessionID string) (p *continuationPayload, err error) {
	s, loadErr := e.sessionRepo.Load(sessionID)
	sessionOverride := ""
	if loadErr == nil {
		sessionOverride = s.ContinuationMode
	}

	tasks, err := taskListAll(e)
	if err != nil {
		return nil, err
	}

	var ready, inProgress, blocked int
	allValidated := len(tasks) > 0
	for _, t := range tasks {
		switch t.Status {
		case "ready":
			ready++
			allValidated = false
		case "claimed":
			inProgress++
			allValidated = false
		case "blocked":
			blocked++
			allValidated = false
		case "pending", "done":
			allValidated = false
		}
	}

	return buildContinuationPayload(e, sessionOverride, ready, inProgress, blocked, allValidated)
}

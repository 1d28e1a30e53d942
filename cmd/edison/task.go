package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/graph"
	"github.com/edison-dev/edison/internal/qaengine"
	"github.com/edison-dev/edison/internal/session"
	"github.com/edison-dev/edison/internal/task"
)

// newTaskCmd wires the task lifecycle and relationship operations
// from spec.md §6: ready, claim, status, done, link, relate, bundle
// add/remove/show, audit --json, plan/waves --json.
func newTaskCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ready",
		Short: "List tasks that are ready to claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			all, err := taskListAll(e)
			if err != nil {
				return err
			}
			idx := graph.BuildIndex(task.ToNodes(all))
			isDone := func(status string) bool { return status == task.StatusValidated }
			return printJSON(idx.ReadyTasks(task.StatusReady, isDone))
		},
	})

	var sessionFlag string
	claim := &cobra.Command{
		Use:   "claim <task-id>",
		Short: "Claim a ready task into the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			e, err := app.load()
			if err != nil {
				return err
			}
			sessionID, src := e.resolveSessionID(sessionFlag)
			if sessionID == "" {
				return unresolvedSessionErr(src)
			}

			all, err := taskListAll(e)
			if err != nil {
				return err
			}
			idx := graph.BuildIndex(task.ToNodes(all))
			statusOf := func(id string) (string, bool) {
				n, ok := idx.Get(id)
				return n.Status, ok
			}
			guard := task.DependsOnResolved(statusOf)

			if err := task.RecordOwner(e.resolver, taskID, sessionID); err != nil {
				return err
			}
			if _, err := e.taskRepo.Transition(taskID, task.StatusClaimed, entity.TransitionOpts{
				Actor:  sessionID,
				Guards: []entity.Guard{guard},
			}); err != nil {
				_ = task.ClearOwner(e.resolver, taskID)
				var blocked *edisonerr.TransitionBlocked
				if errors.As(err, &blocked) && blocked.GuardID == "depends-on-resolved" {
					var unmet []string
					n, _ := idx.Get(taskID)
					for _, edge := range n.Relationships {
						if s, known := statusOf(edge.Target); edge.Type == "depends_on" && (!known || s != task.StatusValidated) {
							unmet = append(unmet, edge.Target)
						}
					}
					return &edisonerr.DependenciesUnsatisfied{TaskID: taskID, Blocked: unmet}
				}
				return err
			}
			if err := session.AddClaimedTask(e.sessionRepo, sessionID, taskID); err != nil {
				return err
			}
			_ = session.Touch(e.sessionRepo, sessionID)

			t, err := e.taskRepo.Load(taskID)
			if err != nil {
				return err
			}
			return printJSON(map[string]string{
				"id":      t.ID,
				"state":   t.Status,
				"session": sessionID,
				"path":    e.resolver.SessionScopedTaskPath(sessionID, taskID),
			})
		},
	}
	claim.Flags().StringVar(&sessionFlag, "session", "", "session id claiming the task (defaults to resolved session)")
	cmd.AddCommand(claim)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's current record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			t, err := e.taskRepo.Load(args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	})

	var force bool
	done := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a claimed task done, pending validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			e, err := app.load()
			if err != nil {
				return err
			}
			hasEvidence := func(id string) bool {
				return len(qaengineEvidenceFiles(e, id)) > 0
			}
			guard := task.RequireEvidence(hasEvidence)
			_, err = e.taskRepo.Transition(taskID, task.StatusDone, entity.TransitionOpts{
				Force:  force,
				Guards: []entity.Guard{guard},
			})
			if err != nil {
				return err
			}
			t, err := e.taskRepo.Load(taskID)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	done.Flags().BoolVar(&force, "force", false, "override the require-evidence soft block")
	cmd.AddCommand(done)

	cmd.AddCommand(&cobra.Command{
		Use:   "link <child-id> <parent-id>",
		Short: "Set child's parent (and parent's child edge)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			store := &task.RepoStore{Repo: e.taskRepo}
			return graph.Add(store, args[0], "parent", args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "relate <task-a> <task-b>",
		Short: "Add a symmetric planning relationship between two tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			store := &task.RepoStore{Repo: e.taskRepo}
			return graph.Add(store, args[0], "related", args[1])
		},
	})

	cmd.AddCommand(newBundleCmd(app))

	cmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Print the task transition audit stream as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			events, err := e.audit.Tail("tasks")
			if err != nil {
				return err
			}
			return printJSON(events)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "waves",
		Aliases: []string{"plan"},
		Short:   "Group outstanding tasks into dependency-ordered waves",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			all, err := taskListAll(e)
			if err != nil {
				return err
			}
			return printJSON(computeWaves(all))
		},
	})

	return cmd
}

func newBundleCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Manage validation-bundle membership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <root> <member>",
		Args:  cobra.ExactArgs(2),
		Short: "Add member to root's validation bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			store := &task.RepoStore{Repo: e.taskRepo}
			return graph.SetBundleRoot(store, args[1], args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <root> <member>",
		Args:  cobra.ExactArgs(2),
		Short: "Remove member from root's validation bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			store := &task.RepoStore{Repo: e.taskRepo}
			return graph.ClearBundleRoot(store, args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <root>",
		Args:  cobra.ExactArgs(1),
		Short: "Show root's validation-bundle cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			all, err := taskListAll(e)
			if err != nil {
				return err
			}
			idx := graph.BuildIndex(task.ToNodes(all))
			members, err := qaengine.BuildCluster(args[0], qaengine.ScopeBundle, idx)
			if err != nil {
				return err
			}
			return printJSON(members)
		},
	})
	return cmd
}

// qaengineEvidenceFiles is a tiny seam so task.go doesn't need to
// import qaengine directly for one call; kept here rather than in
// wiring.go since only this command needs it.
func qaengineEvidenceFiles(e *env, taskID string) []string {
	return evidenceFilesForLatestRound(e, taskID)
}

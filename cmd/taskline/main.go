// Package main implements the taskline CLI, a client for the assignment
// backend that keeps working against its local cache when the backend is
// down.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taskline/internal/api"
	"taskline/internal/config"
	"taskline/internal/database"
	"taskline/internal/logging"
	"taskline/internal/models"
	"taskline/internal/services"
	"taskline/internal/subtask"
)

var (
	cfgFile string
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskline",
	Short: "Assignment tracker client",
	Long: `taskline tracks assignments with deadlines, progress and nested subtasks.

Changes are pushed to the backend first; when it is unreachable they are
applied against the local cache so you can keep working offline.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file overlaying the environment")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")

	addCmd.Flags().StringVar(&addTitle, "title", "", "assignment title (required)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "description; the backend generates subtasks from it")
	addCmd.Flags().StringVar(&addDeadline, "deadline", "", "deadline as YYYY-MM-DD (required)")
	addCmd.Flags().StringArrayVar(&addSteps, "step", nil, "manual top-level subtask (repeatable)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(archivedCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
}

// app holds the wired client stack for one command invocation.
type app struct {
	cfg     *config.Config
	db      *database.DB
	client  *api.Client
	gateway *services.SyncGateway
	store   *services.CollectionStore
}

func newApp() (*app, error) {
	logging.Init()

	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()
	if cfgFile != "" {
		if err := config.LoadFile(cfg, cfgFile); err != nil {
			return nil, err
		}
	}

	if dir := filepath.Dir(cfg.CachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := database.New(cfg.CachePath)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	client, err := api.New(cfg.APIBaseURL, cfg.RequestTimeout, cfg.RequestsPerSecond)
	if err != nil {
		db.Close()
		return nil, err
	}

	gateway := services.NewSyncGateway(client, db)
	return &app{
		cfg:     cfg,
		db:      db,
		client:  client,
		gateway: gateway,
		store:   services.NewCollectionStore(gateway, cfg.SuppressManualSubtasks),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

// load populates the collections, downgrading a remote failure to an offline
// notice since the cached data is still usable.
func (a *app) load(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  Backend unreachable, showing cached data")
	}
	return nil
}

func reportOutcome(outcome services.Outcome) {
	if outcome == services.OutcomeLocal {
		fmt.Fprintln(os.Stderr, "⚠️  Backend unreachable, change saved locally")
	}
}

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		user, err := app.gateway.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("✅ Signed in as %s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the cached session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		app.gateway.Logout(cmd.Context())
		fmt.Println("✅ Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user from the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		user, ok := app.gateway.CurrentUser()
		if !ok {
			return fmt.Errorf("not signed in")
		}
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.load(cmd.Context()); err != nil {
			return err
		}
		printAssignments(app.store.Active())
		return nil
	},
}

var archivedCmd = &cobra.Command{
	Use:   "archived",
	Short: "List archived assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.load(cmd.Context()); err != nil {
			return err
		}
		printAssignments(app.store.Archived())
		return nil
	},
}

var (
	addTitle       string
	addDescription string
	addDeadline    string
	addSteps       []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new assignment",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.load(cmd.Context()); err != nil {
			return err
		}

		draft := models.Assignment{
			Title:       addTitle,
			Description: addDescription,
			Deadline:    addDeadline,
		}
		for i, step := range addSteps {
			draft.Subtasks = append(draft.Subtasks, models.Subtask{ID: i + 1, Text: step})
		}

		created, outcome, err := app.store.Add(cmd.Context(), draft)
		if err != nil {
			return err
		}
		reportOutcome(outcome)
		fmt.Printf("✅ Created %s (%s)\n", created.Title, created.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one assignment with its subtask tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		a, _, err := app.gateway.GetAssignment(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("assignment %s not found: %w", args[0], err)
		}

		fmt.Printf("%s  (%d%%)\n", a.Title, subtask.ProgressOf(a))
		if a.Description != "" {
			fmt.Println(a.Description)
		}
		fmt.Printf("Deadline: %s\n", a.Deadline)
		total, completed := subtask.Count(a.Subtasks)
		if total > 0 {
			fmt.Printf("Steps: %d/%d done\n", completed, total)
		}
		printForest(a.Subtasks, 0)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id> <path>",
	Short: "Toggle a subtask by its dotted path, e.g. 0 or 1.2",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		path, err := parsePath(args[1])
		if err != nil {
			return err
		}

		if err := app.load(cmd.Context()); err != nil {
			return err
		}
		a, _, err := app.gateway.GetAssignment(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("assignment %s not found: %w", args[0], err)
		}

		ctx := cmd.Context()
		session := services.NewSessionStore(a, app.cfg.SaveDebounce, func(saved models.Assignment) {
			_, outcome, err := app.store.Update(ctx, saved)
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠️  Save failed: %v\n", err)
				return
			}
			reportOutcome(outcome)
		})
		defer session.Close()

		if err := session.Toggle(path); err != nil {
			return err
		}
		session.Flush()

		fmt.Printf("✅ Progress now %d%%\n", session.Working().Progress)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move an assignment to the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, args[0], true)
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <id>",
	Short: "Move an archived assignment back to active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMove(cmd, args[0], false)
	},
}

func runMove(cmd *cobra.Command, id string, archive bool) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.load(cmd.Context()); err != nil {
		return err
	}

	var outcome services.Outcome
	if archive {
		outcome, err = app.store.Archive(cmd.Context(), id)
	} else {
		outcome, err = app.store.Unarchive(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	if outcome == services.OutcomeNoop {
		return fmt.Errorf("assignment %s not found", id)
	}
	reportOutcome(outcome)
	fmt.Println("✅ Done")
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an assignment permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.load(cmd.Context()); err != nil {
			return err
		}
		_, outcome, err := app.store.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		reportOutcome(outcome)
		fmt.Println("✅ Deleted")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the deadline reminder scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.load(cmd.Context()); err != nil {
			return err
		}

		reminders, err := services.NewReminderService(app.store, app.cfg.ReminderCron, app.cfg.ReminderWindow)
		if err != nil {
			return err
		}

		reminders.Start()
		if flagged := reminders.Scan(); flagged > 0 {
			log.Printf("🔔 %d assignment(s) need attention", flagged)
		}

		// Wait for interrupt signal to gracefully shut down
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down...")
		return reminders.Stop()
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("backend unhealthy: %w", err)
		}
		fmt.Println("✅ Backend is healthy")
		return nil
	},
}

func printAssignments(list []models.Assignment) {
	if len(list) == 0 {
		fmt.Println("No assignments.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDEADLINE\tPROGRESS")
	for _, a := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", a.ID, a.Title, a.Deadline, subtask.ProgressOf(a))
	}
	w.Flush()
}

func printForest(forest []models.Subtask, depth int) {
	indent := strings.Repeat("  ", depth+1)
	for _, n := range forest {
		mark := " "
		if n.Completed {
			mark = "x"
		}
		fmt.Printf("%s[%s] %s\n", indent, mark, n.Text)
		printForest(n.Subtasks, depth+1)
	}
}

// parsePath converts a dotted index path like "1.2" into tree coordinates.
func parsePath(s string) (subtask.Path, error) {
	parts := strings.Split(s, ".")
	path := make(subtask.Path, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid subtask path %q", s)
		}
		path = append(path, idx)
	}
	return path, nil
}

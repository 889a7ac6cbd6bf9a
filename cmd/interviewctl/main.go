// interviewctl drives an interview session against a running backend from
// the command line. The in-progress session is held in the local snapshot
// cache between invocations, so each command restores it, applies one
// mutation, and pushes the result to the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository/filestore"
	"ciit-backend/internal/service/interview"
	"ciit-backend/pkg/client"
	"ciit-backend/pkg/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := config.New()
	server := os.Getenv("CIIT_SERVER")
	if server == "" {
		server = "http://localhost:" + cfg.Port
	}

	cache, err := filestore.NewSnapshots(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}

	manager := interview.NewStateManager(client.New(server), cache, logger, cfg.AutosaveInterval)
	manager.Restore()
	ctx := context.Background()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "start":
		return cmdStart(ctx, manager, rest)
	case "topics":
		return cmdTopics(ctx, manager, rest)
	case "feedback":
		return cmdFeedback(ctx, manager, rest)
	case "idea":
		return cmdIdea(ctx, manager, rest)
	case "note":
		return cmdNote(ctx, manager, rest)
	case "status":
		return cmdStatus(manager)
	case "end":
		manager.End(ctx)
		fmt.Println("session ended")
		return nil
	case "discard":
		manager.Clear()
		fmt.Println("session discarded")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdStart(ctx context.Context, manager *interview.StateManager, args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	participant := fs.String("participant", "", "participant identifier")
	role := fs.String("role", "", "participant role")
	org := fs.String("org", "", "organization type")
	consent := fs.Bool("consent", false, "participant gave consent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := manager.Create(ctx, domain.Session{
		ParticipantID:    *participant,
		ParticipantRole:  *role,
		OrganizationType: *org,
		ConsentGiven:     *consent,
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	fmt.Println("started", session.ID)
	return nil
}

func cmdTopics(ctx context.Context, manager *interview.StateManager, args []string) error {
	fs := flag.NewFlagSet("topics", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: topics <topic-id>...")
	}

	manager.Update(interview.SessionPatch{SelectedTopics: fs.Args()})
	manager.SyncNow(ctx)
	return nil
}

func cmdFeedback(ctx context.Context, manager *interview.StateManager, args []string) error {
	fs := flag.NewFlagSet("feedback", flag.ContinueOnError)
	conceptID := fs.String("concept", "", "concept id")
	rating := fs.Int("rating", 0, "rating 0-5")
	notes := fs.String("notes", "", "free-form notes")
	mods := fs.String("modifications", "", "suggested modifications")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *conceptID == "" {
		return fmt.Errorf("feedback requires -concept")
	}
	if *rating < 0 || *rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5")
	}

	manager.SetConceptFeedback(*conceptID, domain.ConceptFeedback{
		Rating:        *rating,
		Notes:         *notes,
		Modifications: *mods,
	})
	manager.SyncNow(ctx)
	return nil
}

func cmdIdea(ctx context.Context, manager *interview.StateManager, args []string) error {
	fs := flag.NewFlagSet("idea", flag.ContinueOnError)
	title := fs.String("title", "", "idea title")
	description := fs.String("description", "", "idea description")
	related := fs.String("concept", "", "related concept id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("idea requires -title")
	}

	if idea := manager.AddIdea(*title, *description, *related); idea == nil {
		return fmt.Errorf("no active session; run start first")
	}
	manager.SyncNow(ctx)
	return nil
}

func cmdNote(ctx context.Context, manager *interview.StateManager, args []string) error {
	fs := flag.NewFlagSet("note", flag.ContinueOnError)
	text := fs.String("text", "", "session notes (replaces existing)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	manager.Update(interview.SessionPatch{Notes: text})
	manager.SyncNow(ctx)
	return nil
}

func cmdStatus(manager *interview.StateManager) error {
	session := manager.Current()
	if session == nil {
		fmt.Println("no active session")
		return nil
	}
	out, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: interviewctl <command> [flags]

commands:
  start     begin a new session
  topics    set the selected topic ids
  feedback  record feedback for a concept
  idea      capture a new idea
  note      set session notes
  status    print the active session
  end       end and archive the session
  discard   drop the session without ending it

The backend address comes from CIIT_SERVER (default http://localhost:3001).`)
}

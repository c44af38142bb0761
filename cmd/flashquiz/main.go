package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"flashquiz/internal/api"
	"flashquiz/internal/config"
	"flashquiz/internal/database"
	"flashquiz/internal/models"
	"flashquiz/internal/repository"
	"flashquiz/internal/security"
	"flashquiz/internal/service"
	"flashquiz/internal/storage"
)

// app holds the wired client state for one command invocation
type app struct {
	cfg      *config.Config
	session  *service.SessionStore
	themes   *service.ThemeStore
	tracker  *service.QuizProgressTracker
	auth     *service.AuthService
	catalog  *service.CatalogService
	deviceID string
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	a, err := newApp(ctx, cfg, repository.NewKVRepository(db))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func newApp(ctx context.Context, cfg *config.Config, store storage.Store) (*app, error) {
	var sessionOpts []service.SessionOption
	if cfg.TokenSecret != "" {
		sealer, err := security.NewTokenSealer(cfg.TokenSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create token sealer: %w", err)
		}
		sessionOpts = append(sessionOpts, service.WithTokenSealer(sealer))
	}

	session := service.NewSessionStore(store, sessionOpts...)
	snap := session.Restore(ctx)
	if cfg.Debug {
		log.Printf("[DEBUG] Session restored (user: %s, authenticated: %v)", snap.User.ID, snap.Token != "")
	}

	var progressOpts []service.ProgressOption
	if cfg.ScopeProgressByUser && snap.Token != "" {
		progressOpts = append(progressOpts, service.WithProgressScope(snap.User.ID))
	}
	tracker := service.NewQuizProgressTracker(store, progressOpts...)

	themes := service.NewThemeStore(store)
	themes.Load(ctx)

	deviceID, err := security.DeviceID(ctx, store)
	if err != nil {
		log.Printf("Warning: Failed to load device id: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, session)
	client.SetDeviceID(deviceID)
	client.SetDebug(cfg.Debug)

	return &app{
		cfg:      cfg,
		session:  session,
		themes:   themes,
		tracker:  tracker,
		auth:     service.NewAuthService(client, session),
		catalog:  service.NewCatalogService(client, session, tracker),
		deviceID: deviceID,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "forgot-password":
		return a.forgotPassword(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "profile":
		return a.profile(ctx, args)
	case "categories":
		return a.categories(ctx)
	case "add-card":
		return a.addCard(ctx, args)
	case "quiz":
		return a.quiz(ctx, args, os.Stdin, os.Stdout)
	case "reset-progress":
		return a.resetProgress(ctx, args)
	case "theme":
		return a.theme(ctx, args)
	default:
		printUsage()
		os.Exit(1)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	fs.Parse(args)

	user, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (id %s)\n", displayName(user), user.ID)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "Username (required)")
	email := fs.String("email", "", "Email (required)")
	password := fs.String("password", "", "Password: 8+ characters with upper, lower, digit and one of @$!%*?& (required)")
	fs.Parse(args)

	message, err := a.auth.Register(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Println(orDefault(message, "Registration successful, you can now log in"))
	return nil
}

func (a *app) forgotPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "New password (required)")
	confirm := fs.String("confirm", "", "New password again (required)")
	fs.Parse(args)

	message, err := a.auth.ResetPassword(ctx, *email, *password, *confirm)
	if err != nil {
		return err
	}
	fmt.Println(orDefault(message, "Password updated"))
	return nil
}

func (a *app) logout(ctx context.Context) error {
	message, err := a.auth.Logout(ctx)
	if err != nil {
		return err
	}
	fmt.Println(orDefault(message, "Logged out"))
	return nil
}

func (a *app) whoami() error {
	snap := a.session.Snapshot()
	if snap.Token == "" {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("User:     %s (id %s)\n", displayName(snap.User), snap.User.ID)
	if snap.User.Email != "" {
		fmt.Printf("Email:    %s\n", snap.User.Email)
	}
	if snap.User.Bio != "" {
		fmt.Printf("Bio:      %s\n", snap.User.Bio)
	}
	if snap.User.ProfileImage != "" {
		fmt.Printf("Image:    %s\n", snap.User.ProfileImage)
	}
	if expiry, ok := security.TokenExpiry(snap.Token); ok {
		fmt.Printf("Token:    expires %s\n", expiry.Local().Format(time.RFC1123))
	}
	fmt.Printf("Stats:    %d flashcards, %d quizzes taken, %d categories\n",
		snap.Stats.TotalFlashcards, snap.Stats.QuizzesTaken, snap.Stats.CategoriesCreated)
	fmt.Printf("Theme:    %s\n", a.themes.Theme())
	fmt.Printf("Device:   %s\n", a.deviceID)
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email")
	bio := fs.String("bio", "", "Bio")
	image := fs.String("image", "", "Profile image URI")
	fs.Parse(args)

	// Only flags given on the command line are applied, so "-bio=" clears the bio.
	var patch models.UserPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "username":
			patch.Username = username
		case "email":
			patch.Email = email
		case "bio":
			patch.Bio = bio
		case "image":
			patch.ProfileImage = image
		}
	})

	user, err := a.auth.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Profile updated for %s\n", displayName(user))
	return nil
}

func (a *app) categories(ctx context.Context) error {
	categories, err := a.catalog.Refresh(ctx)
	if err != nil {
		return err
	}

	if len(categories) == 0 {
		fmt.Println("No categories yet. Add a card with: flashquiz add-card")
		return nil
	}
	for _, c := range categories {
		fmt.Printf("%-24s %3d cards  %5.1f%% complete\n", c.CategoryName, len(c.Flashcards), c.SavedProgress)
	}

	stats := a.session.Stats()
	fmt.Printf("\n%d flashcards, %d quizzes taken, %d categories\n",
		stats.TotalFlashcards, stats.QuizzesTaken, stats.CategoriesCreated)
	return nil
}

func (a *app) addCard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-card", flag.ExitOnError)
	category := fs.String("category", "", "Category name (required)")
	question := fs.String("question", "", "Question text (required)")
	answer := fs.String("answer", "", "Answer text (required)")
	fs.Parse(args)

	card, err := a.catalog.CreateFlashcard(ctx, *question, *answer, *category)
	if err != nil {
		return err
	}
	fmt.Printf("Flashcard added to %s (id %s)\n", *category, card.ID)
	return nil
}

func (a *app) quiz(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("quiz", flag.ExitOnError)
	category := fs.String("category", "", "Category name (required)")
	restart := fs.Bool("restart", false, "Discard saved progress and start over")
	fs.Parse(args)

	if *category == "" {
		return errors.New("-category is required")
	}

	questions, err := a.catalog.Questions(ctx, *category)
	if err != nil {
		return err
	}
	runner, err := service.NewQuizRunner(*category, questions, a.tracker)
	if err != nil {
		return err
	}

	if *restart {
		runner.Restart(ctx)
	} else if state := runner.Start(ctx); state.Completed {
		fmt.Fprintf(out, "Quiz already completed (%d/%d correct). Use -restart to take it again.\n",
			state.CorrectAnswers, runner.Total())
		return nil
	} else if state.CurrentQuestionIndex > 0 {
		fmt.Fprintf(out, "Resuming at question %d of %d\n", state.CurrentQuestionIndex+1, runner.Total())
	}

	scanner := bufio.NewScanner(in)
	for {
		q, ok := runner.Current()
		if !ok {
			break
		}

		p := runner.Progress()
		fmt.Fprintf(out, "\n[%d/%d] %s\n> ", p.CurrentQuestionIndex+1, runner.Total(), q.Text)
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nProgress saved.")
			return scanner.Err()
		}

		result, err := runner.Submit(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if !result.Correct {
			fmt.Fprintf(out, "Incorrect! The answer is: %s\nGo back to the flashcards to study more.\n", result.Expected)
			return nil
		}
		fmt.Fprintf(out, "Correct! (%.2f%%)\n", result.Progress.ProgressPercent)
	}

	p := runner.Progress()
	fmt.Fprintf(out, "\nQuiz complete: %d/%d correct\n", p.CorrectAnswers, runner.Total())
	return nil
}

func (a *app) resetProgress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-progress", flag.ExitOnError)
	category := fs.String("category", "", "Category name (required)")
	fs.Parse(args)

	if *category == "" {
		return errors.New("-category is required")
	}
	a.tracker.Reset(ctx, *category)
	fmt.Printf("Progress for %s reset\n", *category)
	return nil
}

func (a *app) theme(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "toggle" {
		a.themes.Toggle(ctx)
	}
	fmt.Printf("Theme: %s\n", a.themes.Theme())
	return nil
}

func displayName(u models.UserSession) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	}
	return "User"
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func printUsage() {
	fmt.Println("FlashQuiz command line client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flashquiz login -email <email> -password <password>")
	fmt.Println("  flashquiz register -username <name> -email <email> -password <password>")
	fmt.Println("  flashquiz forgot-password -email <email> -password <new> -confirm <new>")
	fmt.Println("  flashquiz logout")
	fmt.Println("  flashquiz whoami")
	fmt.Println("  flashquiz profile [-name] [-username] [-email] [-bio] [-image]")
	fmt.Println("  flashquiz categories")
	fmt.Println("  flashquiz add-card -category <name> -question <text> -answer <text>")
	fmt.Println("  flashquiz quiz -category <name> [-restart]")
	fmt.Println("  flashquiz reset-progress -category <name>")
	fmt.Println("  flashquiz theme [toggle]")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  CONFIG_FILE              TOML config file (default: ./flashquiz.toml)")
	fmt.Println("  DB_TYPE                  Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH                  SQLite database path (default: ./flashquiz.db)")
	fmt.Println("  DATABASE_URL             PostgreSQL or MySQL connection URL")
	fmt.Println("  MIGRATIONS_PATH          Migrations directory (default: ./migrations)")
	fmt.Println("  API_BASE_URL             Flashcard API base URL")
	fmt.Println("  HTTP_TIMEOUT             API request timeout (default: 30s)")
	fmt.Println("  TOKEN_SECRET             Encrypt the saved auth token with this secret")
	fmt.Println("  SCOPE_PROGRESS_BY_USER   Keep quiz progress separate per account (default: false)")
	fmt.Println("  DEBUG                    Log API requests")
}

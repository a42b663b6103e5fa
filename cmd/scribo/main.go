package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"scribo/internal/client"
	"scribo/internal/config"
	"scribo/internal/workflow"
	"scribo/pkg/logger"
)

func main() {
	var (
		configPath string
		serverURL  string
	)
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
	flag.StringVar(&serverURL, "server", "", "server base URL (overrides config)")
	flag.Parse()

	cfg := loadConfig(configPath)
	if serverURL != "" {
		cfg.Client.BaseURL = serverURL
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8000"
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	api := client.New(cfg.Client.BaseURL, cfg.Client.Timeout)

	ui := &terminalUI{out: os.Stdout}
	controller := workflow.NewController(api, ui, workflow.Options{
		DownloadDir: cfg.Client.DownloadDir,
	})

	fmt.Println("Scribo - assignment builder")
	fmt.Printf("Connected to %s\n", cfg.Client.BaseURL)
	showSeasonalBanner(cfg.Client.Seasonal)

	// Liveness log only; a dead server shows up on first real call.
	go controller.CheckHealth(context.Background())

	runLoop(controller)
}

func loadConfig(path string) *config.Config {
	if _, err := os.Stat(path); err != nil {
		// Run with defaults when no config file is around.
		cfg := &config.Config{}
		cfg.Client.Timeout = 5 * time.Minute
		cfg.Client.DownloadDir = "."
		cfg.Log.Level = "warn"
		return cfg
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func showSeasonalBanner(s config.SeasonalConfig) {
	if !s.Enabled || s.Message == "" {
		return
	}
	if !inSeason(time.Now(), s.StartDate, s.EndDate) {
		return
	}
	fmt.Println()
	fmt.Println("  " + s.Message)
	fmt.Println()
}

// inSeason checks a month-day range that may wrap the new year
// ("12-20" to "01-05").
func inSeason(now time.Time, start, end string) bool {
	parse := func(md string) (int, bool) {
		parts := strings.SplitN(md, "-", 2)
		if len(parts) != 2 {
			return 0, false
		}
		month, err1 := strconv.Atoi(parts[0])
		day, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return month*100 + day, true
	}

	from, ok1 := parse(start)
	to, ok2 := parse(end)
	if !ok1 || !ok2 {
		return false
	}

	today := int(now.Month())*100 + now.Day()
	if from <= to {
		return today >= from && today <= to
	}
	return today >= from || today <= to
}

func runLoop(controller *workflow.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	printHelp()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			cmd, rest = line[:i], strings.TrimSpace(line[i+1:])
		}

		ctx := context.Background()

		switch strings.ToLower(cmd) {
		case "help":
			printHelp()
		case "generate":
			handleGenerate(ctx, controller, scanner)
		case "show", "preview":
			printSections(controller.Session())
		case "chat":
			if err := controller.Chat(ctx, rest); err != nil {
				fmt.Println(err)
				continue
			}
			printLastReply(controller)
		case "transcript":
			for _, msg := range controller.Transcript() {
				fmt.Printf("[%s] %s\n", msg.Role, msg.Text)
			}
		case "finalize":
			if err := controller.Finalize(ctx); err == nil {
				session := controller.Session()
				fmt.Printf("Ready: %s (run 'download' to save)\n", session.Filename)
			}
		case "download":
			if path, err := controller.Download(ctx); err == nil && path != "" {
				fmt.Printf("Saved to %s\n", path)
			}
		case "reset":
			controller.Reset()
			fmt.Println("Session cleared.")
		case "status":
			fmt.Printf("Phase: %s, busy: %v\n", controller.Phase(), controller.Busy())
			if e := controller.LastError(); e != "" {
				fmt.Printf("Last error: %s\n", e)
			}
		case "quit", "exit":
			return
		default:
			// Anything unrecognized while a document exists is chat.
			if controller.Session().DocumentID != "" {
				if err := controller.Chat(ctx, line); err != nil {
					fmt.Println(err)
					continue
				}
				printLastReply(controller)
			} else {
				fmt.Println("Unknown command. Type 'help'.")
			}
		}
	}
}

func handleGenerate(ctx context.Context, controller *workflow.Controller, scanner *bufio.Scanner) {
	prompt := func(label string) string {
		fmt.Print(label)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	templatePath := prompt("Template path (.docx): ")
	topic := prompt("Topic: ")
	subject := prompt("Subject: ")
	wordCount := 3000
	if raw := prompt("Word count [3000]: "); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			wordCount = n
		}
	}

	err := controller.Generate(ctx, workflow.GenerateParams{
		TemplatePath: templatePath,
		Topic:        topic,
		Subject:      subject,
		WordCount:    wordCount,
	})
	if err != nil {
		fmt.Printf("Generation failed: %s\n", controller.LastError())
		controller.DismissError()
		return
	}

	printSections(controller.Session())
	fmt.Println("Type anything to refine a section, 'finalize' when you're happy.")
}

func printSections(session workflow.Session) {
	if session.DocumentID == "" {
		fmt.Println("No document yet. Run 'generate' first.")
		return
	}
	fmt.Printf("\n%s - %s (document %s)\n", session.Topic, session.Subject, session.DocumentID)
	names := make([]string, 0, len(session.Sections))
	for name := range session.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("\n## %s\n%s\n", name, session.Sections[name])
	}
	fmt.Println()
}

func printLastReply(controller *workflow.Controller) {
	transcript := controller.Transcript()
	if len(transcript) == 0 {
		return
	}
	last := transcript[len(transcript)-1]
	if last.Role == "assistant" {
		fmt.Println(last.Text)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  generate    create a document from a template
  show        print the current sections
  chat <msg>  refine the document (or just type your message)
  transcript  print the chat history
  finalize    build the final document
  download    save the finalized document
  reset       clear the session
  status      show workflow state
  quit        exit`)
}

// terminalUI renders the controller's fire-and-forget events.
type terminalUI struct {
	out *os.File
}

func (t *terminalUI) PhaseChanged(phase workflow.Phase) {
	logger.Debugf("Phase: %s", phase)
}

func (t *terminalUI) Progress(percent int, message string) {
	fmt.Fprintf(t.out, "  [%3d%%] %s\n", percent, message)
}

func (t *terminalUI) Celebrate(reason string) {
	switch reason {
	case "generated":
		fmt.Fprintln(t.out, "\n*** Your assignment is ready! ***")
	case "finalized":
		fmt.Fprintln(t.out, "\n*** Document finalized! ***")
	case "downloaded":
		fmt.Fprintln(t.out, "\n*** Downloaded! ***")
	}
}

func (t *terminalUI) Alert(message string) {
	fmt.Fprintf(t.out, "! %s\n", message)
}

func (t *terminalUI) SectionsUpdated(sections map[string]string) {
	fmt.Fprintf(t.out, "  (%d section(s) in the preview)\n", len(sections))
}

func (t *terminalUI) FinalizePending(pending bool) {
	if pending {
		fmt.Fprintln(t.out, "  Finalizing...")
	}
}

func (t *terminalUI) FeedbackPrompt() {
	fmt.Fprintln(t.out, "\nEnjoying Scribo? Tell us what to improve!")
}

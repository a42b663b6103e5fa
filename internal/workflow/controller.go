package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scribo/internal/client"
	"scribo/internal/model"
	"scribo/pkg/logger"
)

// API is the slice of the document service the controller drives.
// *client.Client satisfies it.
type API interface {
	Health(ctx context.Context) (*model.HealthResponse, error)
	Generate(ctx context.Context, req client.GenerateRequest) (*model.GenerateResponse, error)
	Chat(ctx context.Context, documentID, userPrompt string) (*model.ChatResponse, error)
	Finalize(ctx context.Context, documentID string) (*model.FinalizeResponse, error)
	Download(ctx context.Context, downloadURL, destDir string) (string, error)
}

const greeting = "Hi! Generate a document from a template and I'll help you refine it section by section."

var (
	ErrUnsupportedTemplate = errors.New("only .docx templates are supported")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrNoDocument          = errors.New("no document has been generated yet")
)

// Message is one transcript entry. Role is "user" or "assistant".
type Message struct {
	Role string
	Text string
}

// Session is the client-held record of one generate-through-download
// workflow. DocumentID is empty until the first successful generation.
type Session struct {
	DocumentID  string
	Topic       string
	Subject     string
	Sections    map[string]string
	Filename    string
	DownloadURL string
}

// GenerateParams is the user input for one generation.
type GenerateParams struct {
	TemplatePath string
	Topic        string
	Subject      string
	WordCount    int
}

// Controller owns the session, the transcript, and the phase, and is
// the only thing that issues workflow network calls. At most one call
// is in flight; further triggers while busy are dropped, not queued.
//
// Every in-flight call captures the session epoch at dispatch. Reset
// bumps the epoch, so results that resolve after a reset are discarded
// instead of mutating the cleared session.
type Controller struct {
	api           API
	notifier      Notifier
	downloadDir   string
	feedbackDelay time.Duration

	mu            sync.Mutex
	phase         Phase
	session       Session
	transcript    []Message
	busy          bool
	epoch         uint64
	lastError     string
	feedbackFired bool
}

type Options struct {
	DownloadDir   string
	FeedbackDelay time.Duration
}

func NewController(api API, notifier Notifier, opts Options) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	if opts.FeedbackDelay == 0 {
		opts.FeedbackDelay = 5 * time.Second
	}

	return &Controller{
		api:           api,
		notifier:      notifier,
		downloadDir:   opts.DownloadDir,
		feedbackDelay: opts.FeedbackDelay,
		phase:         PhaseIdle,
		transcript:    []Message{{Role: "assistant", Text: greeting}},
	}
}

// CheckHealth logs service liveness without blocking the workflow.
// Failures are swallowed.
func (c *Controller) CheckHealth(ctx context.Context) {
	health, err := c.api.Health(ctx)
	if err != nil {
		logger.Warnf("Health check failed: %v", err)
		return
	}
	logger.Infof("Service healthy (version %s, %d active sessions)", health.Version, health.ActiveSessions)
}

// Generate uploads the template and creates the document session. A
// second trigger while a call is in flight is silently dropped.
func (c *Controller) Generate(ctx context.Context, params GenerateParams) error {
	if !strings.EqualFold(filepath.Ext(params.TemplatePath), ".docx") {
		c.notifier.Alert("Only .docx templates are supported")
		return ErrUnsupportedTemplate
	}

	epoch, ok := c.begin("generate")
	if !ok {
		return nil
	}

	file, err := os.Open(params.TemplatePath)
	if err != nil {
		c.finish(epoch)
		c.notifier.Alert("Unable to open template: " + err.Error())
		return err
	}
	defer file.Close()

	c.setPhase(epoch, PhaseGenerating)

	stopProgress := c.startProgress(epoch)
	resp, genErr := c.api.Generate(ctx, client.GenerateRequest{
		TemplateName: filepath.Base(params.TemplatePath),
		Template:     file,
		Topic:        params.Topic,
		Subject:      params.Subject,
		WordCount:    params.WordCount,
	})
	stopProgress()

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		logger.Debugf("Discarding stale generate result (epoch %d)", epoch)
		return nil
	}
	c.busy = false

	if genErr != nil {
		c.phase = PhaseErrored
		c.lastError = genErr.Error()
		c.mu.Unlock()
		c.notifier.PhaseChanged(PhaseErrored)
		return genErr
	}

	c.session = Session{
		DocumentID: resp.DocumentID,
		Topic:      resp.Topic,
		Subject:    resp.Subject,
		Sections:   copySections(resp.Sections),
	}
	c.phase = PhasePreviewing
	c.lastError = ""
	sections := copySections(c.session.Sections)
	c.mu.Unlock()

	c.notifier.Progress(100, "Done!")
	c.notifier.PhaseChanged(PhasePreviewing)
	c.notifier.SectionsUpdated(sections)
	c.notifier.Celebrate("generated")
	return nil
}

// Chat runs one refinement turn. The user message lands in the
// transcript before the request goes out; a failed turn shows up as an
// assistant-authored error message rather than an alert.
func (c *Controller) Chat(ctx context.Context, message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	epoch, ok := c.begin("chat")
	if !ok {
		return nil
	}

	c.mu.Lock()
	if c.session.DocumentID == "" {
		c.busy = false
		c.mu.Unlock()
		c.notifier.Alert("Generate a document before chatting")
		return ErrNoDocument
	}
	documentID := c.session.DocumentID
	c.transcript = append(c.transcript, Message{Role: "user", Text: trimmed})
	c.phase = PhaseRefining
	c.mu.Unlock()
	c.notifier.PhaseChanged(PhaseRefining)

	resp, chatErr := c.api.Chat(ctx, documentID, trimmed)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		logger.Debugf("Discarding stale chat result (epoch %d)", epoch)
		return nil
	}
	c.busy = false

	if chatErr != nil {
		c.transcript = append(c.transcript, Message{
			Role: "assistant",
			Text: "Sorry, that didn't work: " + chatErr.Error(),
		})
		c.phase = PhasePreviewing
		c.mu.Unlock()
		c.notifier.PhaseChanged(PhasePreviewing)
		return nil
	}

	changed := len(resp.UpdatedSections) > 0
	for name, content := range resp.UpdatedSections {
		c.session.Sections[name] = content
	}
	c.transcript = append(c.transcript, Message{Role: "assistant", Text: resp.Response})
	c.phase = PhasePreviewing
	sections := copySections(c.session.Sections)
	c.mu.Unlock()

	c.notifier.PhaseChanged(PhasePreviewing)
	if changed {
		c.notifier.SectionsUpdated(sections)
	}
	return nil
}

// Finalize builds the downloadable artifact. On failure the finalize
// control reverts and the phase is untouched.
func (c *Controller) Finalize(ctx context.Context) error {
	epoch, ok := c.begin("finalize")
	if !ok {
		return nil
	}

	c.mu.Lock()
	if c.session.DocumentID == "" {
		c.busy = false
		c.mu.Unlock()
		c.notifier.Alert("Generate a document before finalizing")
		return ErrNoDocument
	}
	documentID := c.session.DocumentID
	prevPhase := c.phase
	c.mu.Unlock()

	c.setPhase(epoch, PhaseFinalizing)
	c.notifier.FinalizePending(true)

	resp, finErr := c.api.Finalize(ctx, documentID)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		logger.Debugf("Discarding stale finalize result (epoch %d)", epoch)
		return nil
	}
	c.busy = false

	if finErr != nil {
		c.phase = prevPhase
		c.mu.Unlock()
		c.notifier.FinalizePending(false)
		c.notifier.PhaseChanged(prevPhase)
		c.notifier.Alert("Finalization failed: " + finErr.Error())
		return finErr
	}

	c.session.Filename = resp.Filename
	c.session.DownloadURL = resp.DownloadURL
	c.phase = PhaseDownloaded
	alreadyFired := c.feedbackFired
	c.feedbackFired = true
	c.mu.Unlock()

	c.notifier.FinalizePending(false)
	c.notifier.PhaseChanged(PhaseDownloaded)
	c.notifier.Celebrate("finalized")

	if !alreadyFired {
		time.AfterFunc(c.feedbackDelay, func() {
			c.mu.Lock()
			stale := epoch != c.epoch
			c.mu.Unlock()
			if !stale {
				c.notifier.FeedbackPrompt()
			}
		})
	}

	return finErr
}

// Download saves the finalized document locally and returns its path.
func (c *Controller) Download(ctx context.Context) (string, error) {
	epoch, ok := c.begin("download")
	if !ok {
		return "", nil
	}

	c.mu.Lock()
	downloadURL := c.session.DownloadURL
	if downloadURL == "" {
		c.busy = false
		c.mu.Unlock()
		c.notifier.Alert("Finalize the document before downloading")
		return "", ErrNoDocument
	}
	c.mu.Unlock()

	path, err := c.api.Download(ctx, downloadURL, c.downloadDir)
	c.finish(epoch)

	if err != nil {
		c.notifier.Alert("Download failed: " + err.Error())
		return "", err
	}

	c.notifier.Celebrate("downloaded")
	return path, nil
}

// Reset clears everything and returns to idle. It has no precondition:
// resetting while a call is in flight bumps the epoch so the eventual
// result is thrown away.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.busy = false
	c.session = Session{}
	c.transcript = []Message{{Role: "assistant", Text: greeting}}
	c.phase = PhaseIdle
	c.lastError = ""
	c.feedbackFired = false
	c.mu.Unlock()

	c.notifier.PhaseChanged(PhaseIdle)
}

// DismissError returns from the error surface to idle without touching
// an existing session.
func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.phase != PhaseErrored {
		c.mu.Unlock()
		return
	}
	c.lastError = ""
	if c.session.DocumentID != "" {
		c.phase = PhasePreviewing
	} else {
		c.phase = PhaseIdle
	}
	phase := c.phase
	c.mu.Unlock()

	c.notifier.PhaseChanged(phase)
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Session returns a copy; callers cannot mutate controller state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	s.Sections = copySections(c.session.Sections)
	return s
}

func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// begin claims the single in-flight slot. Returns the epoch the
// operation belongs to, or ok=false when another call already holds it.
func (c *Controller) begin(op string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		logger.Debugf("Ignoring %s: another operation is in flight", op)
		return 0, false
	}
	c.busy = true
	return c.epoch, true
}

func (c *Controller) finish(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		c.busy = false
	}
}

func (c *Controller) setPhase(epoch uint64, phase Phase) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.phase = phase
	c.mu.Unlock()
	c.notifier.PhaseChanged(phase)
}

func copySections(sections map[string]string) map[string]string {
	if sections == nil {
		return nil
	}
	out := make(map[string]string, len(sections))
	for k, v := range sections {
		out[k] = v
	}
	return out
}

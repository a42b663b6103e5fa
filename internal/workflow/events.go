package workflow

// Notifier receives the controller's fire-and-forget presentation
// signals: phase changes, cosmetic progress, celebrations, alerts. The
// subscriber has no return channel into the controller.
type Notifier interface {
	PhaseChanged(phase Phase)
	Progress(percent int, message string)
	Celebrate(reason string)
	Alert(message string)
	SectionsUpdated(sections map[string]string)
	FinalizePending(pending bool)
	FeedbackPrompt()
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) PhaseChanged(Phase)                {}
func (NopNotifier) Progress(int, string)              {}
func (NopNotifier) Celebrate(string)                  {}
func (NopNotifier) Alert(string)                      {}
func (NopNotifier) SectionsUpdated(map[string]string) {}
func (NopNotifier) FinalizePending(bool)              {}
func (NopNotifier) FeedbackPrompt()                   {}

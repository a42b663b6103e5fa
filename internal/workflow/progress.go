package workflow

import "time"

// Generation progress is purely cosmetic: milestones advance on a
// fixed clock regardless of what the backend is actually doing, and
// hold at the last one until the request resolves.
type milestone struct {
	percent int
	message string
}

var generationMilestones = []milestone{
	{10, "Uploading template..."},
	{25, "Analyzing template structure..."},
	{45, "Generating section content..."},
	{70, "Polishing the writing..."},
	{90, "Almost there..."},
}

var progressInterval = 2 * time.Second

// startProgress emits milestones until the returned stop func is
// called. Milestones from a stale epoch never fire.
func (c *Controller) startProgress(epoch uint64) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for _, m := range generationMilestones {
			c.mu.Lock()
			stale := epoch != c.epoch
			c.mu.Unlock()
			if stale {
				return
			}

			c.notifier.Progress(m.percent, m.message)

			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
		<-done
	}()

	var once bool
	return func() {
		if !once {
			once = true
			close(done)
		}
	}
}

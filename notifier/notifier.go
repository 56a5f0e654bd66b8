// Package notifier fans search completion out to the subscribers who opted
// in. Channels are best effort: a failed delivery is logged, never retried,
// and does not fail the pipeline.
package notifier

import (
	"github.com/twishhq/twish/model"
)

type Notifier interface {
	// Notify tells one searcher that the given search completed. app carries
	// the settings row so channels can honor the notification toggles.
	Notify(app *model.App, search *model.Search, searcher *model.Searcher) error
}

// Composite fans one notification out to every configured channel and
// returns the first error encountered, after trying all channels.
type Composite struct {
	notifiers []Notifier
}

func NewComposite(notifiers ...Notifier) *Composite {
	return &Composite{notifiers: notifiers}
}

func (c *Composite) Notify(app *model.App, search *model.Search, searcher *model.Searcher) error {
	var firstErr error
	for _, n := range c.notifiers {
		if err := n.Notify(app, search, searcher); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

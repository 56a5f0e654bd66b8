package notifier

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/twishhq/twish/model"
)

// SlackNotifier posts a completion message to an operator channel through an
// incoming webhook. Unlike email it does not depend on the App notification
// toggle, it is an operator facing channel configured purely by environment.
type SlackNotifier struct {
	webhookUrl string
}

func NewSlackNotifier(webhookUrl string) *SlackNotifier {
	return &SlackNotifier{webhookUrl: webhookUrl}
}

func (n *SlackNotifier) Notify(app *model.App, search *model.Search, searcher *model.Searcher) error {
	text := fmt.Sprintf("Search %q (%s) completed for %s <%s>",
		search.SearchTerm, search.TruncatedUUID, searcher.Name, searcher.Email)
	if search.Empty {
		text = fmt.Sprintf("Search %q (%s) found no tweets, %s <%s> was registered for it",
			search.SearchTerm, search.TruncatedUUID, searcher.Name, searcher.Email)
	}

	webhookMsg := &slack.WebhookMessage{
		Text: text,
	}
	return slack.PostWebhook(n.webhookUrl, webhookMsg)
}

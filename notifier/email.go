package notifier

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/twishhq/twish/model"
	Logger "github.com/twishhq/twish/utils/log"
)

const charset = "UTF-8"

// EmailNotifier delivers completion emails through AWS SES. The sender
// address comes from the SES_SENDER environment variable, the AWS region and
// credentials from the usual shared config.
type EmailNotifier struct {
	client *ses.SES
	sender string
}

func NewEmailNotifier() (*EmailNotifier, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}

	return &EmailNotifier{
		client: ses.New(sess),
		sender: os.Getenv("SES_SENDER"),
	}, nil
}

func (n *EmailNotifier) Notify(app *model.App, search *model.Search, searcher *model.Searcher) error {
	if !app.EnableEmailNotification {
		return nil
	}

	subject := fmt.Sprintf("%s: your search %q is ready", app.Name, search.SearchTerm)
	body := fmt.Sprintf(
		"Hi %s,\n\nthe collection and classification for %q finished. "+
			"Use the id %s on the results page to browse it.\n",
		searcher.Name, search.SearchTerm, search.TruncatedUUID)
	if search.Empty {
		body = fmt.Sprintf(
			"Hi %s,\n\nunfortunately, we did not found tweets for %q.\n",
			searcher.Name, search.SearchTerm)
	}

	_, err := n.client.SendEmail(&ses.SendEmailInput{
		Source:      aws.String(n.sender),
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(searcher.Email)}},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(subject)},
			Body: &ses.Body{
				Text: &ses.Content{Charset: aws.String(charset), Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return err
	}

	Logger.Log.Infof("notified %s about search %s", searcher.Email, search.TruncatedUUID)
	return nil
}

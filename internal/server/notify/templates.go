package notify

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"
)

var (
	validationBody = template.Must(template.New("validation").Parse(
		`Hello {{.Name}},

Welcome to wordrush! Confirm your email address by opening the link below:

{{.Link}}

If you did not create an account you can ignore this message.
`))

	resetBody = template.Must(template.New("reset").Parse(
		`Hello {{.Name}},

Your password reset code is: {{.Token}}

If you did not ask for a new password you can ignore this message.
`))
)

// Composer renders the messages the identity flows send.
type Composer struct {
	callback *template.Template
}

// NewComposer parses the callback URL template. The template sees
// .Token and .Email, both already query-escaped.
func NewComposer(callbackURLTemplate string) (*Composer, error) {
	t, err := template.New("callback").Option("missingkey=error").Parse(callbackURLTemplate)
	if err != nil {
		return nil, fmt.Errorf("callback url template: %w", err)
	}
	return &Composer{callback: t}, nil
}

func (c *Composer) ValidationMessage(email, name, token string) (Message, error) {
	var link strings.Builder
	if err := c.callback.Execute(&link, map[string]string{
		"Token": url.QueryEscape(token),
		"Email": url.QueryEscape(email),
	}); err != nil {
		return Message{}, err
	}

	var body strings.Builder
	if err := validationBody.Execute(&body, map[string]string{"Name": name, "Link": link.String()}); err != nil {
		return Message{}, err
	}

	return Message{To: email, Subject: "Confirm your wordrush account", Body: body.String()}, nil
}

func (c *Composer) ResetMessage(email, name, token string) (Message, error) {
	var body strings.Builder
	if err := resetBody.Execute(&body, map[string]string{"Name": name, "Token": token}); err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: "Your wordrush password reset code", Body: body.String()}, nil
}

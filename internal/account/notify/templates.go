package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const confirmationSubject = "Confirm your email"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello, {{.UserName}}!</p>
<p>Please confirm your email address by following the link below.
The link is valid for {{.ValidFor}}.</p>
<p><a href="{{.Link}}">Confirm email</a></p>
</body>
</html>
`))

// Confirmation renders the email-confirmation message.
func Confirmation(to, userName, link, validFor string) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		UserName string
		Link     string
		ValidFor string
	}{userName, link, validFor}

	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{To: to, Subject: confirmationSubject, HTMLBody: buf.String()}, nil
}

package mail

import (
	"bytes"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
)

var (
	notificationText = texttemplate.Must(texttemplate.New("notification.txt").Parse(`
Name: {{.Name}}
Email: {{.Email}}
Message: {{.Message}}
`))

	notificationHTML = htmltemplate.Must(htmltemplate.New("notification.html").Parse(`
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong><br>{{.Message}}</p>
`))

	confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(`
Thank you for contacting us! We've received your message and will get back to you soon.

Best regards,
{{.Brand}} Team
`))

	confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(`
<h2>Thank you for contacting us!</h2>
<p>We've received your message and will get back to you soon.</p>
<br>
<p>Best regards,<br>{{.Brand}} Team</p>
`))
)

type confirmationData struct {
	Brand string
}

func notificationSubject(s contact.Submission) string {
	return "New Contact Form Submission from " + singleLine(s.Name)
}

func confirmationSubject(brand string) string {
	return "We received your message - " + brand
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(tmpl executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// singleLine keeps user data out of header folding.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

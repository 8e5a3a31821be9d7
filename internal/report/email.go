package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const bodyTemplate = `Fleet Health Report : Short Summary

{{range .Hosts}}===> 	Health checks on '{{.Host}}' indicate the status is :: {{.Verdict}}

{{end}}{{if .Failing}}Hosts needing investigation: {{join .Failing ", "}}

{{end}}{{if .Attached}}Log of the various checks performed by the monitor is attached.
{{end}}`

// Sender delivers a prepared message. *sendgrid.Client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	To        []string
	// LogFile is attached to the message when set.
	LogFile string
}

// EmailSink sends the report through SendGrid.
type EmailSink struct {
	config EmailConfig
	client Sender
	body   *template.Template
	logger *slog.Logger
}

func NewEmailSink(config EmailConfig, logger *slog.Logger) *EmailSink {
	return NewEmailSinkWithSender(config, sendgrid.NewSendClient(config.APIKey), logger)
}

func NewEmailSinkWithSender(config EmailConfig, client Sender, logger *slog.Logger) *EmailSink {
	body := template.Must(template.New("body").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(bodyTemplate))

	return &EmailSink{
		config: config,
		client: client,
		body:   body,
		logger: logger,
	}
}

func (s *EmailSink) Name() string {
	return "email"
}

// Subject formats the message subject for report.
func Subject(report Report) string {
	return fmt.Sprintf("Fleet Health Monitor Report :: %s, as of, %s",
		report.Overall(), report.Finished.Format(time.RFC1123Z))
}

func (s *EmailSink) Publish(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.config.To) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	message, err := s.message(report)
	if err != nil {
		return err
	}

	subject := Subject(report)
	response, err := s.client.Send(message)
	if err != nil {
		s.logger.Error("Failed to send email",
			slog.Any("to", s.config.To),
			slog.String("subject", subject),
			slog.Any("err", err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("failed to send email: status %d: %s", response.StatusCode, response.Body)
	}

	s.logger.Info("Email sent successfully",
		slog.Any("to", s.config.To),
		slog.String("subject", subject),
		slog.Int("status_code", response.StatusCode))
	return nil
}

func (s *EmailSink) message(report Report) (*mail.SGMailV3, error) {
	type hostLine struct {
		Host    string
		Verdict string
	}
	data := struct {
		Hosts    []hostLine
		Failing  []string
		Attached bool
	}{
		Failing:  report.Results.Failing(),
		Attached: s.config.LogFile != "",
	}
	verdicts := report.Results.Snapshot()
	for _, host := range report.Results.Hosts() {
		data.Hosts = append(data.Hosts, hostLine{Host: host, Verdict: string(verdicts[host])})
	}

	var buf bytes.Buffer
	if err := s.body.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}

	from := mail.NewEmail(s.config.FromName, s.config.FromEmail)
	message := mail.NewSingleEmail(from, Subject(report), mail.NewEmail("", s.config.To[0]), buf.String(), "")
	for _, to := range s.config.To[1:] {
		message.Personalizations[0].AddTos(mail.NewEmail("", to))
	}

	if s.config.LogFile != "" {
		content, err := os.ReadFile(s.config.LogFile)
		if err != nil {
			return nil, fmt.Errorf("read log attachment: %w", err)
		}
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(content))
		attachment.SetType("text/plain")
		attachment.SetFilename(filepath.Base(s.config.LogFile))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}
	return message, nil
}

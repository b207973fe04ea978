// Package report emails a short summary after a pipeline run. It is
// optional, without smtp configuration it stays disabled.
package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("currentadda.services.report")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	Recipient    string `json:"recipient"`
}

type RunReport struct {
	RunId     string
	StartedAt time.Time
	Duration  time.Duration
	Found     int
	Skipped   int
	Processed int
	Failed    int
	Failures  []Failure
}

type Failure struct {
	Url string
	Err string
}

type Reporter struct {
	config SmtpConfig
}

func NewReporter(config SmtpConfig) *Reporter {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Reporter{config: config}
}

// Enabled reports whether enough smtp configuration is present to
// send anything.
func (r *Reporter) Enabled() bool {
	return r.config.Server != "" && r.config.EmailAddress != "" && r.config.Recipient != ""
}

// Send emails the run report. Does nothing when the reporter is not
// configured.
func (r *Reporter) Send(ctx context.Context, rep RunReport) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	if !r.Enabled() {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("CurrentAdda Pipeline <%s>", r.config.EmailAddress)
	mail.To = []string{r.config.Recipient}
	mail.Subject = subject(rep)
	mail.Text = []byte(body(rep))

	addr := fmt.Sprintf("%s:%d", r.config.Server, r.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", r.config.EmailAddress, r.config.Password, r.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send the run report")
		return err
	}
	return nil
}

func subject(rep RunReport) string {
	if rep.Failed > 0 {
		return fmt.Sprintf("Quiz run %s: %d delivered, %d FAILED", rep.RunId, rep.Processed, rep.Failed)
	}
	return fmt.Sprintf("Quiz run %s: %d delivered", rep.RunId, rep.Processed)
}

func body(rep RunReport) string {
	var b strings.Builder
	fmt.Fprintf(
		&b, "Run %s started %s and took %s.\n\n",
		rep.RunId,
		rep.StartedAt.Format("2 January 2006 15:04 MST"),
		rep.Duration.Round(time.Second),
	)
	fmt.Fprintf(&b, "Quizzes found:     %d\n", rep.Found)
	fmt.Fprintf(&b, "Already processed: %d\n", rep.Skipped)
	fmt.Fprintf(&b, "Delivered:         %d\n", rep.Processed)
	fmt.Fprintf(&b, "Failed:            %d\n", rep.Failed)

	if len(rep.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, failure := range rep.Failures {
			fmt.Fprintf(&b, "  - %s: %s\n", failure.Url, failure.Err)
		}
	}
	return b.String()
}

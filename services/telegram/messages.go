package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"

	"go.opentelemetry.io/otel/codes"
)

var NoBatchesDelivered = fmt.Errorf("No question batches could be delivered to the channel.")

const messageSeparator = "━━━━━━━━━━━━━━━━━━━━"

// messageBatchSize is how many questions go into one message before a
// new one is started.
const messageBatchSize = 5

// messageCharLimit leaves headroom under the 4096 character cap the
// bot api enforces per message.
const messageCharLimit = 4000

var optionEmojis = map[string]string{
	"A": "🅰️",
	"B": "🅱️",
	"C": "©️",
	"D": "🅳",
}

// FormatQuestion renders one question as an html formatted message.
// With showAnswer the correct option is bolded and the answer and
// explanation lines are appended.
func FormatQuestion(question quiz.Question, showAnswer bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 <b>પ્રશ્ન %d</b>\n\n", question.Number)
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(question.Text))

	for _, label := range quiz.OptionLabels {
		text, ok := question.Options[label]
		if !ok {
			continue
		}
		emoji, ok := optionEmojis[label]
		if !ok {
			emoji = label
		}
		if showAnswer && label == question.Answer {
			fmt.Fprintf(&b, "%s <b>%s</b> ✅\n\n", emoji, html.EscapeString(text))
		} else {
			fmt.Fprintf(&b, "%s %s\n\n", emoji, html.EscapeString(text))
		}
	}

	if showAnswer {
		fmt.Fprintf(&b, "✅ <b>સાચો જવાબ:</b> વિકલ્પ %s\n\n", question.Answer)
		if question.Explanation != "" {
			fmt.Fprintf(&b, "💡 <b>સમજૂતી:</b>\n%s\n\n", html.EscapeString(question.Explanation))
		}
	}

	b.WriteString(messageSeparator)
	return b.String()
}

func quizHeader(date string, total int) string {
	return strings.TrimSpace(fmt.Sprintf(`
📚 <b>કરંટ અફેર્સ ક્વિઝ</b>
📅 <b>તારીખ:</b> %s
📝 <b>કુલ પ્રશ્નો:</b> %d

%s

આજના મહત્વના પ્રશ્નો અને જવાબો 👇
`, date, total, messageSeparator))
}

func quizFooter(channel string) string {
	return strings.TrimSpace(fmt.Sprintf(`
%s

✅ <b>આજની ક્વિઝ પૂર્ણ થઈ!</b>

📢 <b>અમારી ચેનલ જોડાઓ:</b>
👉 @%s

🎯 દરરોજ નવા કરંટ અફેર્સ
📚 GPSC/GSSSB અભ્યાસ સામગ્રી
📝 પ્રેક્ટિસ ક્વિઝ અને PDF

#CurrentAffairs #GPSC #GSSSB #GujaratJobs
`, messageSeparator, channel))
}

// DefaultCaption is the fallback pdf caption.
func DefaultCaption() string {
	return "📚 Today's Current Affairs Quiz PDF\n\n" +
		"📖 Source: PendulumEdu\n" +
		"📢 Channel: @currentadda\n" +
		"🔗 https://t.me/currentadda"
}

// QuizCaption builds the pdf caption with the quiz date and question
// count. Zero values are left out.
func QuizCaption(date string, questionCount int) string {
	parts := []string{"📚 Today's Current Affairs Quiz PDF"}
	if date != "" {
		parts = append(parts, fmt.Sprintf("📅 Date: %s", date))
	}
	if questionCount > 0 {
		parts = append(parts, fmt.Sprintf("❓ Questions: %d", questionCount))
	}
	parts = append(parts,
		"",
		"📖 Source: PendulumEdu",
		"📢 Channel: @currentadda",
		"🔗 https://t.me/currentadda",
	)
	return strings.Join(parts, "\n")
}

// SendQuiz posts the whole quiz as text messages, a header, the
// questions in batches and a closing footer. It fails only when the
// header or every single batch fails, a lost footer is just logged.
func (c *Client) SendQuiz(ctx context.Context, source quiz.Quiz, date string) error {
	ctx, span := tracer.Start(ctx, "SendQuiz")
	defer span.End()

	slog.InfoContext(
		ctx, "sending quiz messages",
		"questions", len(source.Questions), "channel", c.channel,
	)

	err := c.SendText(ctx, quizHeader(date, len(source.Questions)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send the quiz header")
		return fmt.Errorf("send header: %w", err)
	}

	sent := 0
	batches := batchMessages(source.Questions)
	for i, batch := range batches {
		c.waitThrottle(ctx)
		err := c.SendText(ctx, batch)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to send a question batch",
				"batch", i+1, "batches", len(batches), "err", err,
			)
			continue
		}
		sent++
	}

	c.waitThrottle(ctx)
	err = c.SendText(ctx, quizFooter(strings.TrimPrefix(c.channel, "@")))
	if err != nil {
		slog.WarnContext(ctx, "failed to send the quiz footer", "err", err)
	}

	if sent == 0 {
		span.SetStatus(codes.Error, "no batches were delivered")
		return NoBatchesDelivered
	}
	slog.InfoContext(ctx, "sent quiz messages", "delivered", sent, "batches", len(batches))
	return nil
}

// batchMessages groups formatted questions into messages, starting a
// new one when the batch size or the character limit is reached.
func batchMessages(questions []quiz.Question) []string {
	var messages []string
	for start := 0; start < len(questions); start += messageBatchSize {
		end := min(start+messageBatchSize, len(questions))

		var batch strings.Builder
		for _, question := range questions[start:end] {
			formatted := FormatQuestion(question, true)
			if batch.Len() > 0 && batch.Len()+len(formatted) > messageCharLimit {
				messages = append(messages, batch.String())
				batch.Reset()
			}
			if batch.Len() > 0 {
				batch.WriteString("\n\n")
			}
			batch.WriteString(formatted)
		}
		if batch.Len() > 0 {
			messages = append(messages, batch.String())
		}
	}
	return messages
}

// Package render turns a translated quiz into a themed, print-ready
// html document and prints it to pdf with a headless browser.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"currentadda-pipeline/lib/i18n"
	"currentadda-pipeline/lib/scrapers/pendulum/quiz"

	"go.opentelemetry.io/otel/codes"
)

//go:embed templates
var embeddedTemplates embed.FS

// Service renders quizzes into html and pdf documents.
type Service struct {
	theme       Theme
	templates   fs.FS
	channelName string
	channelLink string
	svgType     string
	outputDir   string
	pdfDir      string

	// Components are resolved once. A nil entry means the template file
	// was missing or broken and the inline fallback markup is used.
	cover          *template.Template
	questionCard   *template.Template
	optionBubble   *template.Template
	explanationBox *template.Template
	promo          *template.Template
}

type Options struct {
	// Theme is one of light, classic or vibrant. Unknown names fall
	// back to light.
	Theme string
	// TemplatesDir loads templates from disk instead of the embedded
	// defaults.
	TemplatesDir string
	// OutputDir receives the rendered html documents. Defaults to
	// "output".
	OutputDir string
	// PdfDir receives the printed pdfs. Defaults to "pdfs".
	PdfDir      string
	ChannelName string
	ChannelLink string
	// SvgBackground picks the cover page decoration, wave, blob or
	// none.
	SvgBackground string
}

func NewService(opts Options) *Service {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.PdfDir == "" {
		opts.PdfDir = "pdfs"
	}
	if opts.ChannelName == "" {
		opts.ChannelName = "CurrentAdda"
	}
	if opts.ChannelLink == "" {
		opts.ChannelLink = "t.me/currentadda"
	}
	if opts.SvgBackground == "" {
		opts.SvgBackground = "wave"
	}

	var templates fs.FS
	if opts.TemplatesDir != "" {
		templates = os.DirFS(opts.TemplatesDir)
	} else {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			panic(err)
		}
		templates = sub
	}

	service := &Service{
		theme:       ThemeByName(opts.Theme),
		templates:   templates,
		channelName: opts.ChannelName,
		channelLink: opts.ChannelLink,
		svgType:     opts.SvgBackground,
		outputDir:   opts.OutputDir,
		pdfDir:      opts.PdfDir,
	}
	service.cover = service.loadComponent("cover")
	service.questionCard = service.loadComponent("question_card")
	service.optionBubble = service.loadComponent("option_bubble")
	service.explanationBox = service.loadComponent("explanation_box")
	service.promo = service.loadComponent("promo")
	return service
}

func (s *Service) loadComponent(name string) *template.Template {
	contents, err := fs.ReadFile(s.templates, "components/"+name+".html")
	if err != nil {
		slog.Warn("component template not found, using fallback", "component", name, "err", err)
		return nil
	}
	tmpl, err := template.New(name).Parse(string(contents))
	if err != nil {
		slog.Warn("component template is broken, using fallback", "component", name, "err", err)
		return nil
	}
	return tmpl
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderHtml builds the complete themed document, cover page first,
// then one card per question and a channel promo page at the end.
func (s *Service) RenderHtml(ctx context.Context, source quiz.Quiz, date string) (string, error) {
	ctx, span := tracer.Start(ctx, "RenderHtml")
	defer span.End()

	title := i18n.T("CoverTitle")

	var content strings.Builder
	cover, err := s.renderCover(ctx, source, title, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render the cover page")
		return "", err
	}
	content.WriteString(cover)

	for _, question := range source.Questions {
		card, err := s.renderQuestionCard(question)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to render a question card")
			return "", fmt.Errorf("question %d: %w", question.Number, err)
		}
		content.WriteString("\n")
		content.WriteString(card)
	}

	promo, err := s.renderPromo()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render the promo page")
		return "", err
	}
	content.WriteString("\n")
	content.WriteString(promo)

	base, err := fs.ReadFile(s.templates, "base.html")
	if err != nil {
		return "", fmt.Errorf("base template: %w", err)
	}
	baseTmpl, err := template.New("base").Parse(string(base))
	if err != nil {
		return "", fmt.Errorf("base template: %w", err)
	}

	var buf bytes.Buffer
	err = baseTmpl.Execute(&buf, map[string]any{
		"Theme":   s.theme.Name,
		"Title":   title,
		"Content": template.HTML(content.String()),
	})
	if err != nil {
		return "", fmt.Errorf("base template: %w", err)
	}

	document := applyTheme(buf.String(), s.theme)
	slog.InfoContext(
		ctx, "rendered quiz html",
		"questions", len(source.Questions),
		"theme", s.theme.Name,
		"bytes", len(document),
	)
	return document, nil
}

// HtmlPath returns where WriteHtml places the document for a stamp.
func (s *Service) HtmlPath(stamp string) string {
	return filepath.Join(s.outputDir, "quiz_"+stamp+".html")
}

// PdfPath returns where RenderPdf places the pdf for a stamp.
func (s *Service) PdfPath(stamp string) string {
	return filepath.Join(s.pdfDir, "current_affairs_quiz_"+stamp+".pdf")
}

// WriteHtml renders the document and writes it under the output
// directory as quiz_<stamp>.html. Returns the written path.
func (s *Service) WriteHtml(ctx context.Context, source quiz.Quiz, date, stamp string) (string, error) {
	document, err := s.RenderHtml(ctx, source, date)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(s.outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := s.HtmlPath(stamp)
	err = os.WriteFile(path, []byte(document), 0644)
	if err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	slog.InfoContext(ctx, "wrote quiz html", "path", path)
	return path, nil
}

func (s *Service) renderCover(ctx context.Context, source quiz.Quiz, title, date string) (string, error) {
	if s.cover == nil {
		slog.WarnContext(ctx, "cover component missing, skipping the cover page")
		return "", nil
	}
	// Two minutes per question is the pace the channel advertises.
	minutes := len(source.Questions) * 2
	return renderTemplate(s.cover, map[string]any{
		"ChannelName":   s.channelName,
		"ChannelLink":   s.channelLink,
		"Title":         title,
		"Date":          date,
		"QuestionCount": i18n.Tp("QuestionCount", len(source.Questions)),
		"EstimatedTime": i18n.Td("EstimatedTime", map[string]any{"Minutes": minutes}),
		"JoinLabel":     i18n.Td("JoinChannel", map[string]any{"Channel": s.channelName}),
		"SvgBackground": template.HTML(s.injectSvgBackground(s.svgType, 0.1, "absolute")),
	})
}

type optionData struct {
	Label     string
	Text      string
	IsCorrect bool
}

func (s *Service) renderQuestionCard(question quiz.Question) (string, error) {
	bubbles := make([]template.HTML, 0, len(quiz.OptionLabels))
	for _, label := range quiz.OptionLabels {
		text, ok := question.Options[label]
		if !ok {
			continue
		}
		opt := optionData{Label: label, Text: text, IsCorrect: label == question.Answer}
		if s.optionBubble == nil {
			bubbles = append(bubbles, template.HTML(fallbackOptionBubble(opt)))
			continue
		}
		bubble, err := renderTemplate(s.optionBubble, opt)
		if err != nil {
			return "", err
		}
		bubbles = append(bubbles, template.HTML(bubble))
	}

	var explanation template.HTML
	if question.Explanation != "" {
		label := i18n.T("ExplanationLabel")
		if s.explanationBox == nil {
			explanation = template.HTML(fallbackExplanationBox(label, question.Explanation))
		} else {
			box, err := renderTemplate(s.explanationBox, map[string]any{
				"Label":       label,
				"Explanation": question.Explanation,
			})
			if err != nil {
				return "", err
			}
			explanation = template.HTML(box)
		}
	}

	if s.questionCard == nil {
		return fallbackQuestionCard(question, bubbles, explanation), nil
	}
	return renderTemplate(s.questionCard, map[string]any{
		"Number":      question.Number,
		"Question":    question.Text,
		"Options":     bubbles,
		"Explanation": explanation,
	})
}

func (s *Service) renderPromo() (string, error) {
	handle := channelHandle(s.channelLink)
	if s.promo == nil {
		return fallbackPromo(s.channelName, handle, s.channelLink), nil
	}
	return renderTemplate(s.promo, map[string]any{
		"ChannelName":   s.channelName,
		"ChannelHandle": handle,
		"ChannelLink":   s.channelLink,
	})
}

func channelHandle(link string) string {
	if idx := strings.LastIndex(link, "/"); idx >= 0 {
		return "@" + link[idx+1:]
	}
	return "@" + link
}

var (
	svgStylePattern   = regexp.MustCompile(`style="([^"]*)"`)
	svgOpacityPattern = regexp.MustCompile(`opacity:\s*[\d.]+;?`)
	svgClassPattern   = regexp.MustCompile(`class="([^"]*)"`)
)

// injectSvgBackground loads an svg decoration and forces the given
// opacity and css position class onto its root element. Returns an
// empty string when the decoration is disabled or unavailable.
func (s *Service) injectSvgBackground(svgType string, opacity float64, position string) string {
	if svgType == "" || svgType == "none" {
		return ""
	}

	contents, err := fs.ReadFile(s.templates, "svg/"+svgType+"_background.svg")
	if err != nil {
		slog.Warn("svg background not found, skipping", "type", svgType, "err", err)
		return ""
	}
	svg := strings.TrimSpace(string(contents))
	if !strings.Contains(strings.ToLower(svg), "<svg") {
		slog.Warn("svg background file has no svg element, skipping", "type", svgType)
		return ""
	}

	opacity = math.Max(0, math.Min(1, opacity))

	if svgStylePattern.MatchString(svg) {
		svg = replaceFirst(svgStylePattern, svg, func(groups []string) string {
			style := strings.Trim(svgOpacityPattern.ReplaceAllString(groups[1], ""), "; ")
			if style != "" {
				style += "; "
			}
			return fmt.Sprintf(`style="%sopacity: %g;"`, style, opacity)
		})
	} else {
		svg = strings.Replace(svg, "<svg", fmt.Sprintf(`<svg style="opacity: %g;"`, opacity), 1)
	}

	if svgClassPattern.MatchString(svg) {
		if !strings.Contains(svg, position) {
			svg = replaceFirst(svgClassPattern, svg, func(groups []string) string {
				return fmt.Sprintf(`class="%s %s"`, groups[1], position)
			})
		}
	} else {
		svg = strings.Replace(svg, "<svg", fmt.Sprintf(`<svg class="%s"`, position), 1)
	}

	return svg
}

func replaceFirst(pattern *regexp.Regexp, input string, repl func(groups []string) string) string {
	match := pattern.FindStringSubmatchIndex(input)
	if match == nil {
		return input
	}
	groups := make([]string, 0, len(match)/2)
	for i := 0; i < len(match); i += 2 {
		groups = append(groups, input[match[i]:match[i+1]])
	}
	return input[:match[0]] + repl(groups) + input[match[1]:]
}

func fallbackOptionBubble(opt optionData) string {
	correctClass := ""
	check := ""
	if opt.IsCorrect {
		correctClass = " option-correct-gradient"
		check = `<span class="check-icon">✓</span>`
	}
	return fmt.Sprintf(
		`<div class="option-bubble%s"><span class="option-label">%s</span><span class="option-text">%s</span>%s</div>`,
		correctClass, opt.Label, template.HTMLEscapeString(opt.Text), check,
	)
}

func fallbackExplanationBox(label, text string) string {
	return fmt.Sprintf(
		`<div class="explanation-box-modern"><div class="explanation-header"><span class="explanation-label">%s</span></div><p class="explanation-text">%s</p></div>`,
		template.HTMLEscapeString(label), template.HTMLEscapeString(text),
	)
}

func fallbackQuestionCard(question quiz.Question, bubbles []template.HTML, explanation template.HTML) string {
	var b strings.Builder
	b.WriteString(`<div class="question-card-modern no-break">`)
	fmt.Fprintf(
		&b,
		`<div class="question-header flex items-start gap-4 mb-6"><span class="question-number-badge flex-shrink-0">%d</span><h3 class="question-text text-xl font-semibold text-gray-800 leading-relaxed flex-1">%s</h3></div>`,
		question.Number, template.HTMLEscapeString(question.Text),
	)
	b.WriteString(`<div class="options-container space-y-3 mb-6">`)
	for _, bubble := range bubbles {
		b.WriteString(string(bubble))
	}
	b.WriteString(`</div>`)
	b.WriteString(string(explanation))
	b.WriteString(`</div>`)
	return b.String()
}

func fallbackPromo(name, handle, link string) string {
	return fmt.Sprintf(
		`<div class="page-break relative min-h-screen flex items-center justify-center p-12"><div class="glass rounded-3xl p-10 text-center"><div class="text-6xl mb-3">📱</div><h3 class="text-3xl font-black text-gray-800 mb-4">%s</h3><div class="text-2xl font-bold text-blue-600 mb-2">%s</div><div class="text-gray-600">%s</div></div></div>`,
		template.HTMLEscapeString(name), handle, link,
	)
}

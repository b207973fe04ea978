package quiz

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"currentadda-pipeline/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

var (
	answerPattern          = regexp.MustCompile(`(?i)(?:correct\s+answer|answer|ans)[\s:]*(?:option[\s:]*)?([A-D])`)
	answerLabelPattern     = regexp.MustCompile(`(?i)(?:correct\s+answer|answer|ans)[\s:]*`)
	optionLabelDotPattern  = regexp.MustCompile(`^[A-D][\.\)]\s*`)
	optionLabelBarePattern = regexp.MustCompile(`^[A-D]\s+`)
	innerSpacePattern      = regexp.MustCompile(`\s+`)
)

// Options spelled out in the solution text have to beat this to count
// as a match.
const answerSimilarityThreshold = 0.85

func parseSection(section *goquery.Selection) (Question, error) {
	name := section.Find("div.q-name").First()
	if name.Length() == 0 {
		return Question{}, fmt.Errorf("question text not found")
	}
	text := htmlutil.CleanText(name.Text())

	options := extractOptions(section)
	if len(options) == 0 {
		return Question{}, fmt.Errorf("no options found")
	}

	answer := extractAnswer(section, options)
	if answer == "" {
		return Question{}, fmt.Errorf("correct answer not found")
	}

	return Question{
		Text:        text,
		Options:     options,
		Answer:      answer,
		Explanation: extractExplanation(section),
	}, nil
}

func extractOptions(section *goquery.Selection) map[string]string {
	options := map[string]string{}

	optionList := section.Find("div.q-option").First()
	if optionList.Length() == 0 {
		return options
	}

	count := 0
	optionList.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if count >= len(OptionLabels) {
			return false
		}
		optionDiv := li.Find("div.containerr-text-opt").First()
		if optionDiv.Length() == 0 {
			return true
		}
		text := cleanOptionText(htmlutil.CleanText(optionDiv.Text()))
		if text == "" {
			return true
		}
		options[OptionLabels[count]] = text
		count++
		return true
	})

	return options
}

// cleanOptionText drops the label the site bakes into the option text,
// "A. ", "B) " and the occasional bare "C " prefix.
func cleanOptionText(text string) string {
	cleaned := optionLabelDotPattern.ReplaceAllString(text, "")
	cleaned = optionLabelBarePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func extractAnswer(section *goquery.Selection, options map[string]string) string {
	solution := section.Find("div.solution-sec").First()
	if solution.Length() == 0 {
		return ""
	}
	text := htmlutil.CleanText(solution.Text())

	if groups := answerPattern.FindStringSubmatch(text); groups != nil {
		return strings.ToUpper(groups[1])
	}

	if len(text) == 1 && text >= "A" && text <= "D" {
		return text
	}

	// The answr badge ends with the letter, scan it from the back.
	answr := solution.Find("div.answr").First()
	if answr.Length() > 0 {
		badge := htmlutil.CleanText(answr.Text())
		for i := len(badge) - 1; i >= 0; i-- {
			if badge[i] >= 'A' && badge[i] <= 'D' {
				return string(badge[i])
			}
		}
	}

	return bestSimilarityAnswer(text, options)
}

// bestSimilarityAnswer handles solutions that spell the winning option
// out instead of labeling it with a letter.
func bestSimilarityAnswer(solutionText string, options map[string]string) string {
	candidate := strings.TrimSpace(answerLabelPattern.ReplaceAllString(solutionText, ""))
	if candidate == "" {
		return ""
	}

	best := ""
	bestScore := 0.0
	for _, label := range OptionLabels {
		text, ok := options[label]
		if !ok {
			continue
		}
		score := matchr.JaroWinkler(strings.ToLower(candidate), strings.ToLower(text), false)
		if score > bestScore {
			bestScore = score
			best = label
		}
	}
	if bestScore < answerSimilarityThreshold {
		return ""
	}
	return best
}

func extractExplanation(section *goquery.Selection) string {
	solution := section.Find("div.solution-sec").First()
	if solution.Length() == 0 {
		return ""
	}
	ansText := solution.Find("div.ans-text").First()
	if ansText.Length() == 0 {
		return ""
	}

	var parts []string
	seen := map[string]bool{}

	ansText.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := collapseSpace(li.Text())
		if text == "" {
			return
		}
		bullet := "• " + text
		parts = append(parts, bullet)
		seen[bullet] = true
	})

	ansText.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.ReplaceAll(collapseSpace(p.Text()), "·", "•")
		if text == "" || seen[text] {
			return
		}
		parts = append(parts, text)
		seen[text] = true
	})

	if len(parts) == 0 {
		return collapseSpace(ansText.Text())
	}
	return collapseSpace(strings.Join(parts, " "))
}

func collapseSpace(text string) string {
	return strings.TrimSpace(innerSpacePattern.ReplaceAllString(text, " "))
}

// isEnglishText reports whether the text reads as english rather than
// hindi. The site duplicates every question in both languages, so a
// devanagari share of 30% or more marks the hindi copy.
func isEnglishText(text string) bool {
	if text == "" {
		return true
	}

	devanagari := 0
	english := 0
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			devanagari++
		} else if r < 128 && unicode.IsLetter(r) {
			english++
		}
	}

	total := devanagari + english
	if total == 0 {
		return true
	}
	return float64(devanagari)/float64(total) < 0.3
}

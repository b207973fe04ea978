package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"  hello   world ", "hello world"},
		{"a b", "a b"},
		{"\tpadded\n", "padded"},
		{"already clean", "already clean"},
	}
	for _, test := range cases {
		got := CleanText(test.in)
		if got != test.expect {
			t.Fatalf("CleanText(%q) = %q, want %q", test.in, got, test.expect)
		}
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="card-section">
			<a href="/quiz/one">First   Quiz</a>
			<a href="https://elsewhere.example.com/two">Second</a>
			<a>no href</a>
		</div>
	`))
	if err != nil {
		t.Fatal(err)
	}
	base, err := url.Parse("https://pendulumedu.com")
	if err != nil {
		t.Fatal(err)
	}

	got := GetAnchors(context.Background(), doc.Find("div.card-section"), base)
	expect := []Anchor{
		{Name: "First Quiz", Href: "https://pendulumedu.com/quiz/one"},
		{Name: "Second", Href: "https://elsewhere.example.com/two"},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatal(diff)
	}
}

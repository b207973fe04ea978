package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// formatHttpMessage renders a finished exchange as a readable dump for
// the debug output directory.
func formatHttpMessage(res *resty.Response) string {
	var b strings.Builder

	b.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&b, "%s %s\n\n", res.Request.Method, res.Request.URL)
	writeHeaders(&b, res.Request.RawRequest.Header)
	b.WriteString("\n")
	b.WriteString(requestBody(res.Request.RawRequest))

	b.WriteString("\n\n---- RESPONSE ----\n\n")
	responseUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		responseUrl = redirected.String()
	}
	fmt.Fprintf(&b, "%d %s\n\n", res.StatusCode(), responseUrl)
	writeHeaders(&b, res.Header())
	b.WriteString("\n")
	b.WriteString(res.String())

	return b.String()
}

func writeHeaders(b *strings.Builder, headers http.Header) {
	for key, values := range headers {
		for _, value := range values {
			fmt.Fprintf(b, "%s: %s\n", key, value)
		}
	}
}

func requestBody(req *http.Request) string {
	// Bodyless requests leave GetBody unset.
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err)
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err)
	}
	return string(contents)
}

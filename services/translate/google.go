package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"currentadda-pipeline/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const googleTranslateUrl = "https://translate.googleapis.com"

// GoogleBackend drives the free gtx endpoint of google translate, the
// same one the in-browser widget talks to. No api key required.
type GoogleBackend struct {
	source string
	target string
	http   *resty.Client
}

type GoogleOptions struct {
	Source string
	Target string
	// BaseUrl overrides the translate endpoint.
	BaseUrl string
}

func NewGoogleBackend(opts GoogleOptions) *GoogleBackend {
	source := opts.Source
	if source == "" {
		source = "en"
	}
	target := opts.Target
	if target == "" {
		target = "gu"
	}
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = googleTranslateUrl
	}

	client := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &GoogleBackend{
		source: source,
		target: target,
		http:   client,
	}
}

func (b *GoogleBackend) Translate(ctx context.Context, text string) (string, error) {
	res, err := b.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     b.source,
			"tl":     b.target,
			"dt":     "t",
			"q":      text,
		}).
		Get("/translate_a/single")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("translate: status %d", res.StatusCode())
	}
	return decodeGtxResponse(res.Body())
}

// decodeGtxResponse unpacks the nested arrays of the gtx wire format.
// The first element is a list of [translated, original, ...] segment
// pairs covering the input sentence by sentence.
func decodeGtxResponse(body []byte) (string, error) {
	var payload []any
	err := json.Unmarshal(body, &payload)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("translate: unexpected response shape")
	}

	var b strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			b.WriteString(translated)
		}
	}
	return b.String(), nil
}

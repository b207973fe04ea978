package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"currentadda-pipeline/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const githubApiUrl = "https://api.github.com"

// GistStore keeps the document in one file of a github gist.
type GistStore struct {
	gistId   string
	fileName string
	http     *resty.Client
}

type GistOptions struct {
	Token    string
	GistId   string
	FileName string
	// BaseUrl overrides the github api endpoint.
	BaseUrl string
}

func NewGistStore(opts GistOptions) *GistStore {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = githubApiUrl
	}

	client := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(time.Second * 10).
		SetHeader("Authorization", "token "+opts.Token).
		SetHeader("Accept", "application/vnd.github.v3+json")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &GistStore{
		gistId:   opts.GistId,
		fileName: opts.FileName,
		http:     client,
	}
}

type gistFile struct {
	Content string `json:"content"`
}

type gistDocument struct {
	Files map[string]gistFile `json:"files"`
}

func (s *GistStore) Load(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "LoadGist")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get("/gists/" + s.gistId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch gist")
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, os.ErrNotExist
	}
	if res.IsError() {
		err := fmt.Errorf("fetch gist: status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var doc gistDocument
	err = json.Unmarshal(res.Body(), &doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode gist")
		return nil, err
	}

	if file, ok := doc.Files[s.fileName]; ok {
		return []byte(file.Content), nil
	}
	// Older gists were created by hand with arbitrary file names, take
	// whatever the gist holds.
	for _, file := range doc.Files {
		return []byte(file.Content), nil
	}
	return nil, os.ErrNotExist
}

func (s *GistStore) Save(ctx context.Context, data []byte) error {
	ctx, span := tracer.Start(ctx, "SaveGist")
	defer span.End()

	payload := gistDocument{
		Files: map[string]gistFile{
			s.fileName: {Content: string(data)},
		},
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetBody(payload).
		Patch("/gists/" + s.gistId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update gist")
		return err
	}
	if res.IsError() {
		err := fmt.Errorf("update gist: status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

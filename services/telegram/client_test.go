package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"
	"currentadda-pipeline/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const fakeBotToken = "123456:ABC-testtoken"

type sentMessage struct {
	ChatId                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sentDocument struct {
	ChatId   string
	Caption  string
	FileName string
	Size     int
}

// fakeBotApi mimics the bot api endpoints the client talks to.
// Messages containing rejectContaining are answered with an error
// response instead of being recorded.
type fakeBotApi struct {
	mux               *http.ServeMux
	messages          []sentMessage
	documents         []sentDocument
	rejectContaining  string
	rejectDescription string
	rejectDocuments   bool
	rejectToken       bool
}

func newFakeBotApi(t *testing.T) *fakeBotApi {
	api := &fakeBotApi{mux: http.NewServeMux()}

	api.mux.HandleFunc("POST /{botSegment}/sendMessage", botToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fakeBotToken, r.PathValue("token"))

		var payload sentMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if api.rejectContaining != "" && strings.Contains(payload.Text, api.rejectContaining) {
			api.sendError(w, api.rejectDescription)
			return
		}
		api.messages = append(api.messages, payload)
		api.sendOk(w, len(api.messages))
	}))

	api.mux.HandleFunc("POST /{botSegment}/sendDocument", botToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fakeBotToken, r.PathValue("token"))
		require.NoError(t, r.ParseMultipartForm(64<<20))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		contents, err := io.ReadAll(file)
		require.NoError(t, err)

		if api.rejectDocuments {
			api.sendError(w, api.rejectDescription)
			return
		}
		api.documents = append(api.documents, sentDocument{
			ChatId:   r.FormValue("chat_id"),
			Caption:  r.FormValue("caption"),
			FileName: header.Filename,
			Size:     len(contents),
		})
		api.sendOk(w, len(api.documents))
	}))

	api.mux.HandleFunc("GET /{botSegment}/getMe", botToken(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fakeBotToken, r.PathValue("token"))

		if api.rejectToken {
			api.sendError(w, "Unauthorized")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"username": "currentadda_bot"},
		})
	}))

	return api
}

// botToken exposes the token embedded in the "bot<token>" path segment
// as PathValue("token"). A mux wildcard cannot match the partial
// segment /bot{token}/, so the routes match the whole segment instead.
func botToken(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue("token", strings.TrimPrefix(r.PathValue("botSegment"), "bot"))
		h(w, r)
	}
}

func (api *fakeBotApi) sendOk(w http.ResponseWriter, messageId int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ok":     true,
		"result": map[string]any{"message_id": messageId},
	})
}

func (api *fakeBotApi) sendError(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"description": description,
	})
}

func newTestClient(t *testing.T, api *fakeBotApi) *Client {
	server := httptest.NewServer(api.mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BotToken: fakeBotToken,
		Channel:  "currentadda",
		BaseUrl:  server.URL,
		Throttle: -1,
	})
	require.NoError(t, err)
	return client
}

func makeQuestions(n int) []quiz.Question {
	questions := make([]quiz.Question, n)
	for i := range questions {
		questions[i] = quiz.Question{
			Number: i + 1,
			Text:   fmt.Sprintf("Question number %d text", i+1),
			Options: map[string]string{
				"A": "First option",
				"B": "Second option",
				"C": "Third option",
				"D": "Fourth option",
			},
			Answer:      "B",
			Explanation: "Because the second option is right.",
		}
	}
	return questions
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.ErrorIs(t, err, BotTokenMissing)
}

func TestChannelNormalization(t *testing.T) {
	client, err := NewClient(ClientOptions{BotToken: fakeBotToken, Channel: "mychannel"})
	require.NoError(t, err)
	require.Equal(t, "@mychannel", client.Channel())

	client, err = NewClient(ClientOptions{BotToken: fakeBotToken, Channel: "@mychannel"})
	require.NoError(t, err)
	require.Equal(t, "@mychannel", client.Channel())

	client, err = NewClient(ClientOptions{BotToken: fakeBotToken})
	require.NoError(t, err)
	require.Equal(t, "@currentadda", client.Channel())
}

func TestSendText(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	client := newTestClient(t, api)

	err := client.SendText(context.Background(), "<b>hello</b>")
	require.NoError(t, err)

	require.Len(t, api.messages, 1)
	require.Equal(t, "@currentadda", api.messages[0].ChatId)
	require.Equal(t, "<b>hello</b>", api.messages[0].Text)
	require.Equal(t, "HTML", api.messages[0].ParseMode)
	require.True(t, api.messages[0].DisableWebPagePreview)
}

func TestSendTextApiError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	api.rejectContaining = "hello"
	api.rejectDescription = "Bad Request: chat not found"
	client := newTestClient(t, api)

	err := client.SendText(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
	require.Empty(t, api.messages)
}

func TestSendDocument(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	client := newTestClient(t, api)

	path := filepath.Join(t.TempDir(), "current_affairs_quiz_20251128.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644))

	err := client.SendDocument(context.Background(), path, "caption text")
	require.NoError(t, err)

	require.Len(t, api.documents, 1)
	require.Equal(t, "@currentadda", api.documents[0].ChatId)
	require.Equal(t, "caption text", api.documents[0].Caption)
	require.Equal(t, "current_affairs_quiz_20251128.pdf", api.documents[0].FileName)
	require.Equal(t, len("%PDF-1.4 fake"), api.documents[0].Size)
}

func TestSendDocumentDefaultCaption(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	client := newTestClient(t, api)

	path := filepath.Join(t.TempDir(), "quiz.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0644))

	err := client.SendDocument(context.Background(), path, "")
	require.NoError(t, err)

	require.Len(t, api.documents, 1)
	require.Equal(t, DefaultCaption(), api.documents[0].Caption)
}

func TestSendDocumentMissingFile(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	client := newTestClient(t, api)

	err := client.SendDocument(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "document not found")
	require.Empty(t, api.documents)
}

func TestSendDocumentTooLarge(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	client := newTestClient(t, api)
	client.maxDocumentSize = 10

	path := filepath.Join(t.TempDir(), "huge.pdf")
	require.NoError(t, os.WriteFile(path, []byte("12345678901"), 0644))

	err := client.SendDocument(context.Background(), path, "")
	require.ErrorIs(t, err, FileTooLarge)

	// The size check has to run before any network traffic.
	require.Empty(t, api.documents)
}

func TestSendDocumentRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	api.rejectDocuments = true
	api.rejectDescription = "Bad Request: not enough rights to send documents"
	client := newTestClient(t, api)

	path := filepath.Join(t.TempDir(), "quiz.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0644))

	err := client.SendDocument(context.Background(), path, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not enough rights")
}

func TestGetMe(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	client := newTestClient(t, newFakeBotApi(t))

	username, err := client.GetMe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "currentadda_bot", username)
}

func TestGetMeBadToken(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/telegram")
	defer cleanup()

	api := newFakeBotApi(t)
	api.rejectToken = true
	client := newTestClient(t, api)

	_, err := client.GetMe(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unauthorized")
}

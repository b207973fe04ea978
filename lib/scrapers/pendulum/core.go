package pendulum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"currentadda-pipeline/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var LoginFailed = fmt.Errorf("Failed to sign in to your account.")
var InvalidCredentials = fmt.Errorf("Invalid email or password.")

const loginPath = "/login"
const listingPath = "/quiz/current-affairs"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// the only cookies the site needs back to recognize a signed in session
var sessionCookieNames = []string{"PHPSESSID", "pendulum_session"}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

func (c *Client) LoginEmailPassword(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "client:LoginEmailPassword")
	defer span.End()

	// establishes the anonymous session the login form posts under
	_, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("origin", strings.TrimSuffix(c.BaseUrl.String(), "/")).
		SetHeader("referer", c.BaseUrl.JoinPath(loginPath).String()).
		SetFormData(map[string]string{
			"emailId":  email,
			"password": password,
			"submit":   "Sign in",
		}).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return LoginFailed
	}
	if len(c.Http.GetClient().Jar.Cookies(c.BaseUrl)) == 0 {
		span.SetStatus(codes.Error, "no session cookies received")
		return LoginFailed
	}

	// a failed sign in lands back on the login page with an error banner
	finalUrl := res.RawResponse.Request.URL
	if strings.Contains(strings.ToLower(finalUrl.Path), "login") &&
		strings.Contains(strings.ToLower(res.String()), "error") {
		span.SetStatus(codes.Error, InvalidCredentials.Error())
		return InvalidCredentials
	}

	return nil
}

// ValidateSession probes the quiz listing without following redirects.
// A bounce towards the login page means the stored session is stale.
func (c *Client) ValidateSession(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:ValidateSession")
	defer span.End()

	probe := *c.Http.GetClient()
	probe.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.BaseUrl.JoinPath(listingPath).String(),
		nil,
	)
	if err != nil {
		return false, err
	}
	req.Header.Set("user-agent", userAgent)

	res, err := probe.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session probe request failed")
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusFound &&
		strings.Contains(strings.ToLower(res.Header.Get("Location")), "login") {
		return false, nil
	}
	return res.StatusCode == http.StatusOK, nil
}

// ExportCookies pulls the session cookies out of the jar so they can be
// persisted or handed to a browser.
func (c *Client) ExportCookies() map[string]string {
	out := map[string]string{}
	for _, cookie := range c.Http.GetClient().Jar.Cookies(c.BaseUrl) {
		for _, name := range sessionCookieNames {
			if cookie.Name == name {
				out[name] = cookie.Value
			}
		}
	}
	return out
}

func (c *Client) RestoreCookies(cookies map[string]string) {
	var restored []*http.Cookie
	for name, value := range cookies {
		restored = append(restored, &http.Cookie{
			Name:   name,
			Value:  value,
			Path:   "/",
			Domain: c.BaseUrl.Hostname(),
		})
	}
	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, restored)
}

// SessionStore persists session cookies between runs, typically a local
// file mirrored to a gist so CI runners share the same session.
type SessionStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

type AuthOptions struct {
	BaseUrl  string
	Email    string
	Password string
}

// Authenticate returns a signed in client. Stored session cookies are
// reused when they still pass the listing probe, anything else falls
// back to a fresh sign in whose cookies are persisted for the next run.
func Authenticate(ctx context.Context, sessions SessionStore, opts AuthOptions) (*Client, error) {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	client, err := NewClient(ctx, ClientOptions{BaseUrl: opts.BaseUrl})
	if err != nil {
		return nil, err
	}

	if sessions != nil {
		raw, err := sessions.Load(ctx)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "failed to load stored session", "err", err)
		}

		var cookies map[string]string
		if len(raw) > 0 {
			err = json.Unmarshal(raw, &cookies)
			if err != nil {
				slog.WarnContext(ctx, "stored session is corrupt, ignoring it", "err", err)
			}
		}

		if len(cookies) > 0 {
			client.RestoreCookies(cookies)
			valid, err := client.ValidateSession(ctx)
			if err != nil {
				slog.WarnContext(ctx, "session probe failed", "err", err)
			}
			if valid {
				slog.InfoContext(ctx, "using stored session cookies")
				return client, nil
			}
			slog.InfoContext(ctx, "stored session expired, signing in again")
		}
	}

	err = client.LoginEmailPassword(ctx, opts.Email, opts.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign in failed")
		return nil, err
	}

	if sessions != nil {
		exported := client.ExportCookies()
		if len(exported) > 0 {
			raw, err := json.MarshalIndent(exported, "", "  ")
			if err == nil {
				err = sessions.Save(ctx, raw)
			}
			if err != nil {
				slog.WarnContext(ctx, "failed to persist session cookies", "err", err)
			}
		}
	}

	slog.InfoContext(ctx, "signed in with fresh credentials")
	return client, nil
}

// Package translate is a best-effort machine translation facade.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/pkg/retrylimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public Google Translate endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Result is one translation.
type Result struct {
	Text   string
	Source string // detected source language, "auto" if unknown
}

// Client performs a single translation.
type Client interface {
	Translate(ctx context.Context, text, lang string) (Result, error)
}

// GoogleClient calls the gtx endpoint behind an adaptive limiter.
type GoogleClient struct {
	Endpoint    string
	HTTP        *http.Client
	Limiter     *retrylimit.AdaptiveLimiter
	MaxAttempts int
}

// NewGoogleClient creates a client limited to rps requests per second.
func NewGoogleClient(rps float64) *GoogleClient {
	if rps <= 0 {
		rps = 5
	}
	return &GoogleClient{
		Endpoint:    DefaultEndpoint,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		Limiter:     retrylimit.NewAdaptiveLimiter(rate.Limit(rps), 1, rate.Limit(rps*2), 1, 0.5),
		MaxAttempts: 3,
	}
}

func (c *GoogleClient) Translate(ctx context.Context, text, lang string) (Result, error) {
	var res Result
	err := retrylimit.WithRetryMax(ctx, func() error {
		r, err := c.do(ctx, text, lang)
		if err != nil {
			return err
		}
		res = r
		return nil
	}, c.Limiter, max(1, c.MaxAttempts))
	return res, err
}

func (c *GoogleClient) do(ctx context.Context, text, lang string) (Result, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", lang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, retrylimit.Fatal(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := &retrylimit.StatusError{Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Result{}, retrylimit.Fatal(statusErr)
		}
		return Result{}, statusErr
	}

	res, err := parse(body)
	if err != nil {
		return Result{}, retrylimit.Fatal(err)
	}
	return res, nil
}

// parse reads the nested-array response: [0] is a list of [translated, original, ...]
// sentence pairs and [2] is the detected source language.
func parse(body []byte) (Result, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(raw) < 1 {
		return Result{}, errors.New("unexpected response structure")
	}

	var sentences [][]any
	if err := json.Unmarshal(raw[0], &sentences); err != nil {
		return Result{}, fmt.Errorf("unexpected sentences structure: %w", err)
	}

	var b strings.Builder
	for _, pair := range sentences {
		if len(pair) == 0 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			b.WriteString(s)
		}
	}

	res := Result{Text: b.String(), Source: "auto"}
	if len(raw) > 2 {
		var src string
		if json.Unmarshal(raw[2], &src) == nil && src != "" {
			res.Source = src
		}
	}
	if res.Text == "" {
		return Result{}, errors.New("empty translation")
	}
	return res, nil
}

// Facade never fails: errors are logged and the input is returned.
type Facade struct {
	client Client
	log    zerolog.Logger
}

func NewFacade(client Client) *Facade {
	return &Facade{
		client: client,
		log:    log.With().Str("component", "translate").Logger(),
	}
}

// Translate returns text in lang, or text unchanged on any failure.
func (f *Facade) Translate(ctx context.Context, text, lang string) string {
	res, ok := f.Detailed(ctx, text, lang)
	if !ok {
		return text
	}
	return res.Text
}

// Detailed also reports the detected source language. ok is false when text was returned as is.
func (f *Facade) Detailed(ctx context.Context, text, lang string) (Result, bool) {
	if strings.TrimSpace(text) == "" || lang == "" || f.client == nil {
		return Result{Text: text, Source: "auto"}, false
	}
	res, err := f.client.Translate(ctx, text, lang)
	if err != nil {
		f.log.Warn().Err(err).Str("lang", lang).Msg("Translation failed, using original text")
		return Result{Text: text, Source: "auto"}, false
	}
	return res, true
}

// Styled translates text and applies the form's tone.
func (f *Facade) Styled(ctx context.Context, form mood.Form, text, lang string) string {
	if lang != "" && lang != "en" {
		text = f.Translate(ctx, text, lang)
	}
	return form.Style(text)
}

package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/campusdesk/campusdesk/internal/pkg/errors"
)

const (
	googleTTSBaseURL = "https://translate.google.com/translate_tts"
	// The endpoint rejects long inputs, so text is spoken in pieces
	// and the MP3 frames are concatenated.
	googleTTSMaxChars = 100

	defaultTTSTimeout = 15 * time.Second
)

// Letter-by-letter pronunciation for branch acronyms. Spoken as-is
// they come out as garbled words.
var acronymPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bB\.?Tech\b`), "B Tech"},
	{regexp.MustCompile(`(?i)\bM\.?Tech\b`), "M Tech"},
	{regexp.MustCompile(`(?i)\bAIML\b`), "A I M L"},
	{regexp.MustCompile(`(?i)\bCSE\b`), "C S E"},
	{regexp.MustCompile(`(?i)\bECE\b`), "E C E"},
	{regexp.MustCompile(`(?i)\bCSD\b`), "C S D"},
	{regexp.MustCompile(`(?i)\bIT\b`), "I T"},
	{regexp.MustCompile(`(?i)\bEE\b`), "E E"},
	{regexp.MustCompile(`(?i)\bME\b`), "M E"},
	{regexp.MustCompile(`(?i)\bCE\b`), "C E"},
	{regexp.MustCompile(`(?i)\bCS\b`), "C S"},
	{regexp.MustCompile(`(?i)\bDS\b`), "D S"},
}

type GoogleTTSConfig struct {
	Lang string `json:"lang"`
	TLD  string `json:"tld"`
}

// GoogleTTS speaks text through the public translate endpoint.
type GoogleTTS struct {
	lang   string
	tld    string
	client *http.Client
}

func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	tld := cfg.TLD
	if tld == "" {
		tld = "co.in"
	}
	return &GoogleTTS{
		lang:   lang,
		tld:    tld,
		client: &http.Client{Timeout: defaultTTSTimeout},
	}
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	spoken := expandForSpeech(text)
	var audio bytes.Buffer
	for _, piece := range splitForSpeech(spoken, googleTTSMaxChars) {
		data, err := g.fetch(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("%w: tts: %v", errors.ErrProvider, err)
		}
		audio.Write(data)
	}
	return audio.Bytes(), nil
}

func (g *GoogleTTS) fetch(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.lang)
	params.Set("ttsspeed", "1")
	params.Set("q", text)
	endpoint := strings.Replace(googleTTSBaseURL, "translate.google.com", "translate.google."+g.tld, 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate_tts: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// expandForSpeech rewrites symbols and acronyms that the voice would
// otherwise mangle.
func expandForSpeech(text string) string {
	out := strings.ReplaceAll(text, "₹", "rupees ")
	out = strings.ReplaceAll(out, "**", "")
	for _, p := range acronymPatterns {
		out = p.re.ReplaceAllString(out, p.replacement)
	}
	return out
}

// splitForSpeech breaks text into pieces of at most max characters,
// preferring sentence and word boundaries.
func splitForSpeech(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var pieces []string
	for len(text) > max {
		cut := strings.LastIndexAny(text[:max], ".!?")
		if cut < max/2 {
			cut = strings.LastIndex(text[:max], " ")
		}
		if cut <= 0 {
			cut = max - 1
		}
		pieces = append(pieces, strings.TrimSpace(text[:cut+1]))
		text = strings.TrimSpace(text[cut+1:])
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

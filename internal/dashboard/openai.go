package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"courrierkit/internal/shared"

	"github.com/sirupsen/logrus"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1/responses"
	DefaultOpenAIModel = "gpt-4.1-mini"
	maxOutputTokens    = 200
)

// OpenAICommenter asks the Responses API for a richer comment and falls back
// to the rule based text on any failure.
type OpenAICommenter struct {
	APIKey   string
	URL      string
	Model    string
	Client   *http.Client
	Logger   *logrus.Logger
	Fallback Commenter
}

// NewOpenAICommenter returns a commenter for apiKey with the default endpoint and model.
func NewOpenAICommenter(apiKey string, log *logrus.Logger) *OpenAICommenter {
	return &OpenAICommenter{
		APIKey:   apiKey,
		URL:      DefaultOpenAIURL,
		Model:    DefaultOpenAIModel,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Logger:   log,
		Fallback: RuleCommenter{},
	}
}

type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

type responsesReply struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(mode Mode, snap Snapshot, query string) string {
	totals, _ := json.Marshal(snap.Totals)
	kpis, _ := json.Marshal(snap.IncomingKPIs)

	var b strings.Builder
	b.WriteString("Tu es un assistant spécialisé en gouvernance des courriers et archivage.\n")
	b.WriteString("On te fournit des indicateurs chiffrés et une requête utilisateur. ")
	b.WriteString("Produis un court commentaire analytique (3 à 4 phrases max), en français, ")
	b.WriteString("qui aide un responsable à piloter son activité.\n\n")
	fmt.Fprintf(&b, "Requête: %s\n", query)
	fmt.Fprintf(&b, "Mode détecté: %s\n", mode)
	fmt.Fprintf(&b, "Totaux: %s\n", totals)
	fmt.Fprintf(&b, "KPIs courriers entrants: %s\n", kpis)
	return b.String()
}

func (c *OpenAICommenter) Comment(ctx context.Context, mode Mode, snap Snapshot, query string) string {
	text, err := c.complete(ctx, BuildPrompt(mode, snap, query))
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warnf("OpenAI call failed, falling back to rule based comment: %v", err)
		}
		fallback := c.Fallback
		if fallback == nil {
			fallback = RuleCommenter{}
		}
		return fallback.Comment(ctx, mode, snap, query)
	}
	return text
}

func (c *OpenAICommenter) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(responsesRequest{Model: c.Model, Input: prompt, MaxOutputTokens: maxOutputTokens})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("responses API returned %d: %s", resp.StatusCode, shared.Truncate(string(raw), 300))
	}

	var reply responsesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("decode responses API reply: %w", err)
	}
	for _, out := range reply.Output {
		for _, part := range out.Content {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("responses API reply has no text output")
}

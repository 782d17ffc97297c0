// Package paraphrase calls the external text-generation service that turns
// raw policy text into a formal employee-facing email.
package paraphrase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/config"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/errors"
	httpclient "github.com/AdeptTechSolutions/Auto-GRC/internal/common/http"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
)

// Paraphraser is what the activation flow depends on.
type Paraphraser interface {
	Paraphrase(ctx context.Context, policyText string) (subject, body string, err error)
}

// Client is the HTTP implementation of Paraphraser.
type Client struct {
	cfg    config.GenAIConfig
	client *httpclient.Client
	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		logger: log.WithFields(map[string]interface{}{"component": "paraphrase"}),
	}
}

const promptTemplate = `You are a workplace communication assistant.

Your task is to write a formal and professional email to employees about a new internal policy.
The content of the policy is:

%q

Do:
- Use formal tone.
- Start with a subject line of the form "Subject: ...".
- Do not repeat the policy as-is; paraphrase it naturally.
- Keep it concise and respectful.
- Keep the sender department = Compliance Department

Don't:
- Add explanations, commentary or interpretation.
- Generate anything beyond the email itself.

Now, generate the email:`

// Paraphrase sends the policy text to the generation API and splits the
// result into subject and body. Treated as a pure, possibly slow call; no
// retries are owned here.
func (c *Client) Paraphrase(ctx context.Context, policyText string) (string, string, error) {
	requestBody := map[string]interface{}{
		"prompt": fmt.Sprintf(promptTemplate, policyText),
	}

	payload, _ := json.Marshal(requestBody)
	req, err := http.NewRequest("POST", c.cfg.BaseURL+"/api/ai/generate", bytes.NewBuffer(payload))
	if err != nil {
		return "", "", errors.NewParaphraseFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		return "", "", errors.NewParaphraseFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", errors.NewParaphraseFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", "", errors.NewParaphraseFailedError(err)
	}

	subject, body, err := SplitEmail(apiResponse.Text)
	if err != nil {
		return "", "", errors.NewParaphraseFailedError(err)
	}

	c.logger.Debug("policy paraphrased", map[string]interface{}{
		"subject": subject,
	})
	return subject, body, nil
}

// SplitEmail extracts the "Subject:" line and the body that follows it from
// generated email text.
func SplitEmail(text string) (string, string, error) {
	lines := strings.Split(text, "\n")

	subject := ""
	bodyStart := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if subject == "" && strings.HasPrefix(trimmed, "Subject:") {
			subject = strings.TrimSpace(strings.TrimPrefix(trimmed, "Subject:"))
			bodyStart = i + 1
			break
		}
	}

	if subject == "" {
		return "", "", fmt.Errorf("no subject line in generated email")
	}

	body := strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	if body == "" {
		return "", "", fmt.Errorf("empty body in generated email")
	}

	return subject, body, nil
}

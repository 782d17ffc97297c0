// internal/notifier/notifier.go
package notifier

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/metrics"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/observability"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
)

const (
	KindActivation = "activation"
	KindReminder   = "reminder"
)

// Notifier fans a message out to a cohort of recipients. Each recipient is
// sent independently: a transport failure is recorded and the rest of the
// batch proceeds.
type Notifier struct {
	transport     Transport
	codec         linkcodec.Codec
	baseURL       string
	maxConcurrent int
	logger        logger.Logger
	obs           *observability.Observability
}

func New(transport Transport, codec linkcodec.Codec, baseURL string, maxConcurrent int, log logger.Logger, obs *observability.Observability) *Notifier {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Notifier{
		transport:     transport,
		codec:         codec,
		baseURL:       baseURL,
		maxConcurrent: maxConcurrent,
		logger:        log.WithFields(map[string]interface{}{"component": "notifier"}),
		obs:           obs,
	}
}

// SendBatch delivers the policy announcement to every recipient, appending a
// personal acknowledge/decline link pair to the body.
func (n *Notifier) SendBatch(ctx context.Context, policyID int64, recipients []Recipient, subject, body string) *BatchResult {
	return n.sendAll(ctx, KindActivation, recipients, subject, func(r Recipient) (string, error) {
		return n.renderWithLinks(policyID, r.Email, body)
	})
}

// SendReminders delivers a fixed reminder text to every recipient. Reminder
// mails carry no new links; the original links stay valid.
func (n *Notifier) SendReminders(ctx context.Context, recipients []Recipient, subject, body string) *BatchResult {
	return n.sendAll(ctx, KindReminder, recipients, subject, func(Recipient) (string, error) {
		return body, nil
	})
}

func (n *Notifier) sendAll(ctx context.Context, kind string, recipients []Recipient, subject string, render func(Recipient) (string, error)) *BatchResult {
	result := &BatchResult{StartedAt: time.Now().UTC()}
	if len(recipients) == 0 {
		return result
	}

	batchID := uuid.New().String()
	log := n.logger.WithFields(map[string]interface{}{
		"batchId":    batchID,
		"kind":       kind,
		"recipients": len(recipients),
	})
	log.Info("starting batch send", nil)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, n.maxConcurrent)
	)

	for _, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(r Recipient) {
			defer wg.Done()
			defer func() { <-sem }()

			err := n.sendOne(ctx, r, subject, render)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.EmailsFailed.WithLabelValues(kind).Inc()
				n.obs.RecordSend(ctx, "failed")
				result.Failed = append(result.Failed, Failure{Email: r.Email, Reason: err.Error()})
				log.Warn("recipient send failed", map[string]interface{}{
					"email": r.Email,
					"error": err,
				})
				return
			}
			metrics.EmailsSent.WithLabelValues(kind).Inc()
			n.obs.RecordSend(ctx, "sent")
			result.Succeeded++
		}(recipient)
	}
	wg.Wait()

	result.Duration = time.Since(result.StartedAt)
	metrics.BatchSendDuration.WithLabelValues(kind).Observe(result.Duration.Seconds())
	n.obs.RecordBatchDuration(ctx, result.Duration, batchStatus(result))

	log.Info("batch send finished", map[string]interface{}{
		"succeeded": result.Succeeded,
		"failed":    len(result.Failed),
		"duration":  result.Duration.String(),
	})
	return result
}

func (n *Notifier) sendOne(ctx context.Context, r Recipient, subject string, render func(Recipient) (string, error)) error {
	body, err := render(r)
	if err != nil {
		return err
	}
	return n.transport.Send(ctx, r.Email, subject, body)
}

// renderWithLinks appends the acknowledge and decline links for one
// recipient. Each link carries its own token so the decision travels in the
// link itself.
func (n *Notifier) renderWithLinks(policyID int64, email, body string) (string, error) {
	ackToken, err := n.codec.Encode(linkcodec.Payload{PolicyID: policyID, Email: email, Status: linkcodec.DecisionAck})
	if err != nil {
		return "", fmt.Errorf("encode acknowledge link: %w", err)
	}
	nakToken, err := n.codec.Encode(linkcodec.Payload{PolicyID: policyID, Email: email, Status: linkcodec.DecisionNak})
	if err != nil {
		return "", fmt.Errorf("encode decline link: %w", err)
	}

	return fmt.Sprintf("%s\n\nTo acknowledge this policy, click here:\n%s\n\nTo decline, click here:\n%s\n",
		body, n.linkURL(ackToken), n.linkURL(nakToken)), nil
}

func (n *Notifier) linkURL(token string) string {
	return fmt.Sprintf("%s/acknowledge?data=%s", n.baseURL, url.QueryEscape(token))
}

func batchStatus(r *BatchResult) string {
	if len(r.Failed) == 0 {
		return "clean"
	}
	if r.Succeeded == 0 {
		return "failed"
	}
	return "partial"
}

// internal/activation/activation.go
package activation

import (
	"context"
	"errors"
	"fmt"

	commonerrors "github.com/AdeptTechSolutions/Auto-GRC/internal/common/errors"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/cohort"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/notifier"
)

var ErrPolicyNotFound = errors.New("policy not found")

// PolicyStore is the view of the store activation needs.
type PolicyStore interface {
	GetPolicy(ctx context.Context, id int64) (*models.Policy, error)
	UpdatePolicyStatus(ctx context.Context, id int64, status models.PolicyStatus) error
}

// Paraphraser rewrites raw policy text into an announcement email.
// It returns a subject and a body.
type Paraphraser interface {
	Paraphrase(ctx context.Context, policyText string) (string, string, error)
}

// Sender fans the announcement out to the cohort.
type Sender interface {
	SendBatch(ctx context.Context, policyID int64, recipients []notifier.Recipient, subject, body string) *notifier.BatchResult
}

// Result reports the outcome of one activation attempt.
type Result struct {
	Implemented  bool   `json:"implemented"`
	Message      string `json:"message"`
	SuccessCount int    `json:"success_count"`
}

// Service drives a policy from Not Implemented to Implemented: resolve the
// cohort, seed the ledger, paraphrase the text, send the batch.
type Service struct {
	store       PolicyStore
	resolver    *cohort.Resolver
	paraphraser Paraphraser
	sender      Sender
	logger      logger.Logger
}

func NewService(store PolicyStore, resolver *cohort.Resolver, paraphraser Paraphraser, sender Sender, log logger.Logger) *Service {
	return &Service{
		store:       store,
		resolver:    resolver,
		paraphraser: paraphraser,
		sender:      sender,
		logger:      log.WithFields(map[string]interface{}{"component": "activation"}),
	}
}

// Activate runs the full activation flow for one policy. Per-recipient send
// failures do not block activation: once at least the batch has been
// attempted, the policy is marked Implemented and the result reports how many
// mails went out. Cohort resolution, seeding and paraphrasing errors abort
// the attempt and leave the policy Not Implemented.
func (s *Service) Activate(ctx context.Context, policyID int64) (*Result, error) {
	log := s.logger.WithFields(map[string]interface{}{"policyId": policyID})

	policy, err := s.store.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, ErrPolicyNotFound
	}

	employees, err := s.resolver.Resolve(ctx, cohort.Criteria{
		Department: policy.Department,
		WorkMode:   policy.WorkMode,
	})
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		log.Warn("no eligible recipients, policy left inactive", nil)
		return &Result{
			Implemented: false,
			Message:     "no eligible recipients match the policy criteria",
		}, nil
	}

	if _, err := s.resolver.Seed(ctx, policyID, employees); err != nil {
		return nil, err
	}

	subject, body, err := s.paraphraser.Paraphrase(ctx, policy.PolicyText)
	if err != nil {
		log.Error("paraphrasing failed", map[string]interface{}{"error": err})
		return nil, commonerrors.NewParaphraseFailedError(err)
	}

	recipients := make([]notifier.Recipient, 0, len(employees))
	for _, e := range employees {
		recipients = append(recipients, notifier.Recipient{
			EmployeeID: e.ID,
			Name:       e.Name,
			Email:      e.Email,
		})
	}

	batch := s.sender.SendBatch(ctx, policyID, recipients, subject, body)

	if err := s.store.UpdatePolicyStatus(ctx, policyID, models.PolicyImplemented); err != nil {
		return nil, err
	}

	log.Info("policy activated", map[string]interface{}{
		"sent":   batch.Succeeded,
		"failed": len(batch.Failed),
	})
	return &Result{
		Implemented:  true,
		Message:      fmt.Sprintf("policy activated, notifications sent to %d/%d recipients", batch.Succeeded, batch.Total()),
		SuccessCount: batch.Succeeded,
	}, nil
}

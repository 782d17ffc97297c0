// internal/notifier/notifier_test.go
package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
)

type mockTransport struct {
	mu       sync.Mutex
	sent     []sentMail
	sendFunc func(to, subject, body string) error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockTransport) Send(ctx context.Context, to, subject, body string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(to, subject, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *mockTransport) delivered() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func testNotifier(t *testing.T, transport Transport) *Notifier {
	t.Helper()
	log := logger.NewTestLogger(t)
	return New(transport, linkcodec.NewCodec(), "http://ack.example.com", 4, log, nil)
}

func TestSendBatch_AllSucceed(t *testing.T) {
	transport := &mockTransport{}
	n := testNotifier(t, transport)

	recipients := []Recipient{
		{EmployeeID: 1, Name: "Alice", Email: "alice@example.com"},
		{EmployeeID: 2, Name: "Bob", Email: "bob@example.com"},
	}

	result := n.SendBatch(context.Background(), 7, recipients, "New Policy", "Please read the new policy.")

	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, result.Total())
	assert.Len(t, transport.delivered(), 2)
}

func TestSendBatch_PartialFailureIsIsolated(t *testing.T) {
	transport := &mockTransport{
		sendFunc: func(to, subject, body string) error {
			if to == "bob@example.com" {
				return errors.New("mailbox unavailable")
			}
			return nil
		},
	}
	n := testNotifier(t, transport)

	recipients := []Recipient{
		{EmployeeID: 1, Name: "Alice", Email: "alice@example.com"},
		{EmployeeID: 2, Name: "Bob", Email: "bob@example.com"},
		{EmployeeID: 3, Name: "Carol", Email: "carol@example.com"},
	}

	result := n.SendBatch(context.Background(), 7, recipients, "New Policy", "Please read the new policy.")

	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bob@example.com", result.Failed[0].Email)
	assert.Contains(t, result.Failed[0].Reason, "mailbox unavailable")
}

func TestSendBatch_EmbedsDecisionLinks(t *testing.T) {
	transport := &mockTransport{}
	codec := linkcodec.NewCodec()
	n := testNotifier(t, transport)

	result := n.SendBatch(context.Background(), 42,
		[]Recipient{{EmployeeID: 5, Name: "Dana", Email: "dana@example.com"}},
		"New Policy", "Body text.")
	require.Equal(t, 1, result.Succeeded)

	mails := transport.delivered()
	require.Len(t, mails, 1)
	body := mails[0].body

	assert.Contains(t, body, "Body text.")
	assert.Contains(t, body, "http://ack.example.com/acknowledge?data=")

	ackToken, err := codec.Encode(linkcodec.Payload{PolicyID: 42, Email: "dana@example.com", Status: linkcodec.DecisionAck})
	require.NoError(t, err)
	nakToken, err := codec.Encode(linkcodec.Payload{PolicyID: 42, Email: "dana@example.com", Status: linkcodec.DecisionNak})
	require.NoError(t, err)
	assert.Contains(t, body, ackToken)
	assert.Contains(t, body, nakToken)
}

func TestSendReminders_NoLinks(t *testing.T) {
	transport := &mockTransport{}
	n := testNotifier(t, transport)

	result := n.SendReminders(context.Background(),
		[]Recipient{{EmployeeID: 1, Name: "Alice", Email: "alice@example.com"}},
		"Policy Acknowledgement Reminder", "Please acknowledge the pending policy.")

	assert.Equal(t, 1, result.Succeeded)
	mails := transport.delivered()
	require.Len(t, mails, 1)
	assert.Equal(t, "Please acknowledge the pending policy.", mails[0].body)
	assert.NotContains(t, mails[0].body, "acknowledge?data=")
}

func TestSendBatch_EmptyCohort(t *testing.T) {
	transport := &mockTransport{}
	n := testNotifier(t, transport)

	result := n.SendBatch(context.Background(), 7, nil, "New Policy", "Body.")

	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Empty(t, transport.delivered())
}

func TestSESTransport_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{}, nil
		},
	}
	transport := &SESTransport{client: mockSES, from: "compliance@example.com"}

	err := transport.Send(context.Background(), "alice@example.com", "New Policy", "Body.")
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "compliance@example.com", *captured.Source)
	assert.Equal(t, []string{"alice@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "New Policy", *captured.Message.Subject.Data)
}

func TestSESTransport_SendError(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	transport := &SESTransport{client: mockSES, from: "compliance@example.com"}

	err := transport.Send(context.Background(), "alice@example.com", "New Policy", "Body.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSMTPTransport_BuildMessage(t *testing.T) {
	transport := &SMTPTransport{from: "compliance@example.com"}

	msg := transport.buildMessage("alice@example.com", "New Policy", "Line one.\nLine two.")

	assert.True(t, strings.HasPrefix(msg, "From: compliance@example.com\r\n"))
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: New Policy\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\nLine one.\nLine two."))
}

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/ackserver"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/activation"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/cohort"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/notifier"
)

// memoryBackend is an in-memory stand-in for the store, shared by the
// activation flow and the acknowledgement endpoint so a token minted during
// activation lands on the same ledger the endpoint updates.
type memoryBackend struct {
	mu        sync.Mutex
	policies  map[int64]*models.Policy
	employees []models.Employee
	ledger    map[[2]int64]models.AckStatus
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		policies: map[int64]*models.Policy{},
		ledger:   map[[2]int64]models.AckStatus{},
	}
}

func (m *memoryBackend) GetPolicy(ctx context.Context, id int64) (*models.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policies[id], nil
}

func (m *memoryBackend) UpdatePolicyStatus(ctx context.Context, id int64, status models.PolicyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[id].Status = status
	return nil
}

func (m *memoryBackend) ListEligibleEmployees(ctx context.Context, department string, workMode models.WorkMode) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Employee
	for _, e := range m.employees {
		if department != "" && e.Department != department {
			continue
		}
		if workMode != "" && e.WorkMode != workMode {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryBackend) SeedAcknowledgements(ctx context.Context, policyID int64, employeeIDs []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seeded := 0
	for _, id := range employeeIDs {
		key := [2]int64{policyID, id}
		if _, ok := m.ledger[key]; ok {
			continue
		}
		m.ledger[key] = models.AckAwaitingResponse
		seeded++
	}
	return seeded, nil
}

func (m *memoryBackend) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if e.Email == email {
			emp := e
			return &emp, nil
		}
	}
	return nil, nil
}

func (m *memoryBackend) UpdateAcknowledgementStatus(ctx context.Context, policyID, employeeID int64, status models.AckStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{policyID, employeeID}
	if _, ok := m.ledger[key]; !ok {
		return false, nil
	}
	m.ledger[key] = status
	return true, nil
}

func (m *memoryBackend) CountAcknowledgementsByStatus(ctx context.Context) (map[models.AckStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.AckStatus]int{}
	for _, status := range m.ledger {
		counts[status]++
	}
	return counts, nil
}

func (m *memoryBackend) status(policyID, employeeID int64) models.AckStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger[[2]int64{policyID, employeeID}]
}

// captureTransport records outgoing mail instead of delivering it.
type captureTransport struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (c *captureTransport) Send(ctx context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bodies == nil {
		c.bodies = map[string]string{}
	}
	c.bodies[to] = body
	return nil
}

type stubParaphraser struct{}

func (stubParaphraser) Paraphrase(ctx context.Context, policyText string) (string, string, error) {
	return "Device Encryption Policy", "Dear team,\n\nPlease review the new policy.", nil
}

var linkPattern = regexp.MustCompile(`/acknowledge\?data=(\S+)`)

// TestPolicyAcknowledgementLifecycle drives the whole path: activate a
// policy, pull the acknowledge and decline links out of the mail a real
// recipient would receive, and click them against the endpoint.
func TestPolicyAcknowledgementLifecycle(t *testing.T) {
	log := logger.NewTestLogger(t)
	backend := newMemoryBackend()
	backend.policies[7] = &models.Policy{
		ID:         7,
		PolicyText: "All laptops must be encrypted.",
		Department: "IT",
		Status:     models.PolicyNotImplemented,
	}
	backend.employees = []models.Employee{
		{ID: 1, Name: "Alice", Email: "alice@example.com", Department: "IT"},
		{ID: 2, Name: "Bob", Email: "bob@example.com", Department: "HR"},
	}

	codec := linkcodec.NewCodec()
	transport := &captureTransport{}
	mailer := notifier.New(transport, codec, "http://ack.example.com", 2, log, nil)
	svc := activation.NewService(backend, cohort.NewResolver(backend, log), stubParaphraser{}, mailer, log)

	endpoint := httptest.NewServer(ackserver.New(backend, codec, log, "ack-server", "test").Handler())
	t.Cleanup(endpoint.Close)

	// Activation targets the IT cohort only.
	result, err := svc.Activate(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, result.Implemented)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, models.PolicyImplemented, backend.policies[7].Status)
	assert.Equal(t, models.AckAwaitingResponse, backend.status(7, 1))
	assert.NotContains(t, transport.bodies, "bob@example.com")

	// The mail body carries the acknowledge link first, the decline second.
	body := transport.bodies["alice@example.com"]
	links := linkPattern.FindAllStringSubmatch(body, -1)
	require.Len(t, links, 2)

	click := func(token string) int {
		resp, err := http.Get(endpoint.URL + "/acknowledge?data=" + token)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	// Clicking the acknowledge link flips the ledger entry.
	assert.Equal(t, http.StatusOK, click(links[0][1]))
	assert.Equal(t, models.AckAcknowledged, backend.status(7, 1))

	// A later decline click overwrites it.
	assert.Equal(t, http.StatusOK, click(links[1][1]))
	assert.Equal(t, models.AckDeclined, backend.status(7, 1))

	// A token for a policy that never seeded this employee is rejected
	// without touching the ledger.
	stray, err := codec.Encode(linkcodec.Payload{PolicyID: 99, Email: "alice@example.com", Status: linkcodec.DecisionAck})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, click(stray))
	assert.Equal(t, models.AckDeclined, backend.status(7, 1))
}

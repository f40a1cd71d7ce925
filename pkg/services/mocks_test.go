package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/repositories"
)

// mockRunRepo is an in-memory ExtractionRunRepository with the same
// one-active-run behavior as the real store.
type mockRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*models.ExtractionRun

	createErr error
	updateErr error
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[uuid.UUID]*models.ExtractionRun)}
}

var _ repositories.ExtractionRunRepository = (*mockRunRepo)(nil)

func (m *mockRunRepo) CreateIfNoneActive(_ context.Context, run *models.ExtractionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.runs {
		if existing.ContractID == run.ContractID && existing.Status.IsActive() {
			return fmt.Errorf("active run exists for contract %s: %w", run.ContractID, apperrors.ErrAlreadyActive)
		}
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *mockRunRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ExtractionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, apperrors.ErrUnknownRun)
	}
	copied := *run
	return &copied, nil
}

func (m *mockRunRepo) Update(_ context.Context, run *models.ExtractionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.runs[run.ID]; !ok {
		return fmt.Errorf("run %s: %w", run.ID, apperrors.ErrUnknownRun)
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *mockRunRepo) FindActiveByContract(_ context.Context, contractID uuid.UUID) (*models.ExtractionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		if run.ContractID == contractID && run.Status.IsActive() {
			copied := *run
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockRunRepo) ListByContract(_ context.Context, contractID uuid.UUID) ([]*models.ExtractionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ExtractionRun
	for _, run := range m.runs {
		if run.ContractID == contractID {
			copied := *run
			out = append(out, &copied)
		}
	}
	return out, nil
}

// mockContractRepo is an in-memory ContractRepository.
type mockContractRepo struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*models.Contract

	createErr error
}

func newMockContractRepo() *mockContractRepo {
	return &mockContractRepo{contracts: make(map[uuid.UUID]*models.Contract)}
}

var _ repositories.ContractRepository = (*mockContractRepo)(nil)

func (m *mockContractRepo) Create(_ context.Context, contract *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	copied := *contract
	m.contracts[contract.ID] = &copied
	return nil
}

func (m *mockContractRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contract, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", id, apperrors.ErrNotFound)
	}
	copied := *contract
	return &copied, nil
}

func (m *mockContractRepo) Update(_ context.Context, contract *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[contract.ID]; !ok {
		return fmt.Errorf("contract %s: %w", contract.ID, apperrors.ErrNotFound)
	}
	copied := *contract
	m.contracts[contract.ID] = &copied
	return nil
}

func (m *mockContractRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[id]; !ok {
		return fmt.Errorf("contract %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.contracts, id)
	return nil
}

func (m *mockContractRepo) List(_ context.Context, limit int) ([]*models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Contract
	for _, contract := range m.contracts {
		if len(out) >= limit {
			break
		}
		copied := *contract
		out = append(out, &copied)
	}
	return out, nil
}

// mockRuleRepo is an in-memory ReviewRuleRepository.
type mockRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*models.ReviewRule
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: make(map[uuid.UUID]*models.ReviewRule)}
}

var _ repositories.ReviewRuleRepository = (*mockRuleRepo)(nil)

func (m *mockRuleRepo) Create(_ context.Context, rule *models.ReviewRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	copied := *rule
	m.rules[rule.ID] = &copied
	return nil
}

func (m *mockRuleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ReviewRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", id, apperrors.ErrNotFound)
	}
	copied := *rule
	return &copied, nil
}

func (m *mockRuleRepo) Update(_ context.Context, rule *models.ReviewRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return fmt.Errorf("rule %s: %w", rule.ID, apperrors.ErrNotFound)
	}
	copied := *rule
	m.rules[rule.ID] = &copied
	return nil
}

func (m *mockRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return fmt.Errorf("rule %s: %w", id, apperrors.ErrNotFound)
	}
	delete(m.rules, id)
	return nil
}

func (m *mockRuleRepo) List(_ context.Context) ([]*models.ReviewRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReviewRule
	for _, rule := range m.rules {
		copied := *rule
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRuleRepo) ListEnabledForMode(_ context.Context, mode models.ReviewMode) ([]*models.ReviewRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReviewRule
	for _, rule := range m.rules {
		if rule.Enabled && models.CoversAtLeast(rule.Mode, mode) {
			copied := *rule
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockRuleRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*models.ReviewRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReviewRule
	for _, id := range ids {
		if rule, ok := m.rules[id]; ok {
			copied := *rule
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockRuleRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rules), nil
}

// mockAuditTrail records appended entries in order.
type mockAuditTrail struct {
	mu      sync.Mutex
	entries []*models.AuditEntry

	appendErr error
}

func newMockAuditTrail() *mockAuditTrail {
	return &mockAuditTrail{}
}

var _ AuditTrail = (*mockAuditTrail)(nil)

func (m *mockAuditTrail) Append(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockAuditTrail) FindByContract(_ context.Context, contractID uuid.UUID) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for _, entry := range m.entries {
		if entry.ContractID == contractID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockAuditTrail) FindByRun(_ context.Context, runID uuid.UUID) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for _, entry := range m.entries {
		if entry.RunID == runID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

// transitions returns the ordered transition kinds appended for a run.
func (m *mockAuditTrail) transitions(runID uuid.UUID) []models.TransitionKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TransitionKind
	for _, entry := range m.entries {
		if entry.RunID == runID {
			out = append(out, entry.Transition)
		}
	}
	return out
}

package audit

import (
	"context"
	"slices"
	"sync"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
)

// Results is everything an audit run produced.
type Results struct {
	Pages    []*domain.PageSnapshot `json:"pages"`
	Findings []domain.Finding       `json:"findings"`
	Failures []domain.FetchFailure  `json:"failures"`
}

// FindingsFor returns the findings recorded for pageURL.
func (r *Results) FindingsFor(pageURL string) []domain.Finding {
	var out []domain.Finding
	for i := range r.Findings {
		if r.Findings[i].PageURL == pageURL {
			out = append(out, r.Findings[i])
		}
	}
	return out
}

// Repository persists audit runs and their results.
type Repository interface {
	Create(ctx context.Context, run *domain.AuditRun) error
	Get(ctx context.Context, id string) (*domain.AuditRun, error)
	Update(ctx context.Context, run *domain.AuditRun) error
	SaveResults(ctx context.Context, runID string, results *Results) error
	Results(ctx context.Context, runID string) (*Results, error)
	List(ctx context.Context, limit, offset int) ([]*domain.AuditRun, error)
}

// MemoryRepository keeps runs in process memory. Stored values are copied
// so callers never share state with the repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	runs    map[string]domain.AuditRun
	order   []string
	results map[string]*Results
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		runs:    make(map[string]domain.AuditRun),
		results: make(map[string]*Results),
	}
}

func (m *MemoryRepository) Create(_ context.Context, run *domain.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return ErrDuplicateRun
	}
	m.runs[run.ID] = cloneRun(run)
	m.order = append(m.order, run.ID)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*domain.AuditRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := cloneRun(&run)
	return &out, nil
}

func (m *MemoryRepository) Update(_ context.Context, run *domain.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

func (m *MemoryRepository) SaveResults(_ context.Context, runID string, results *Results) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[runID]; !ok {
		return ErrRunNotFound
	}
	m.results[runID] = &Results{
		Pages:    slices.Clone(results.Pages),
		Findings: slices.Clone(results.Findings),
		Failures: slices.Clone(results.Failures),
	}
	return nil
}

func (m *MemoryRepository) Results(_ context.Context, runID string) (*Results, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.runs[runID]; !ok {
		return nil, ErrRunNotFound
	}
	res, ok := m.results[runID]
	if !ok {
		return &Results{}, nil
	}
	return &Results{
		Pages:    slices.Clone(res.Pages),
		Findings: slices.Clone(res.Findings),
		Failures: slices.Clone(res.Failures),
	}, nil
}

// List returns runs newest first.
func (m *MemoryRepository) List(_ context.Context, limit, offset int) ([]*domain.AuditRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.AuditRun, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		run := m.runs[m.order[i]]
		c := cloneRun(&run)
		out = append(out, &c)
	}
	if offset >= len(out) {
		return []*domain.AuditRun{}, nil
	}
	out = out[max(offset, 0):]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// cloneRun copies run including its pointer and slice fields.
func cloneRun(run *domain.AuditRun) domain.AuditRun {
	c := *run
	c.Config.SeedURLs = slices.Clone(run.Config.SeedURLs)
	c.StartedAt = clonePtr(run.StartedAt)
	c.FinishedAt = clonePtr(run.FinishedAt)
	c.OverallScore = clonePtr(run.OverallScore)
	c.ErrorMessage = clonePtr(run.ErrorMessage)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

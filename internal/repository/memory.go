package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

// memoryRepository is a mutex-guarded in-memory store used in tests and in
// DSN-less development runs. All mutations go through a single lock, so the
// open-ticket uniqueness check and the insert are atomic.
type memoryRepository struct {
	mu      sync.Mutex
	seq     int64
	tickets []domain.Ticket
}

// NewMemoryRepository instantiates the in-memory ticket store.
func NewMemoryRepository() TicketRepository {
	return &memoryRepository{}
}

func (r *memoryRepository) NextID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return strconv.FormatInt(r.seq, 10), nil
}

func (r *memoryRepository) Create(ctx context.Context, id, requesterID, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tickets {
		if r.tickets[i].Status == domain.TicketStatusOpen && r.tickets[i].RequesterID == requesterID {
			return nil, ErrOpenTicketExists
		}
	}

	now := time.Now()
	ticket := domain.Ticket{
		ID:          id,
		RequesterID: requesterID,
		ChannelID:   channelID,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tickets = append(r.tickets, ticket)
	return &ticket, nil
}

func (r *memoryRepository) FindOpenByRequester(ctx context.Context, requesterID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOpen(func(t *domain.Ticket) bool { return t.RequesterID == requesterID })
}

func (r *memoryRepository) FindOpenByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOpen(func(t *domain.Ticket) bool { return t.ChannelID == channelID })
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			ticket := r.tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) CloseByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tickets {
		if r.tickets[i].Status == domain.TicketStatusOpen && r.tickets[i].ChannelID == channelID {
			now := time.Now()
			r.tickets[i].Status = domain.TicketStatusClosed
			r.tickets[i].ClosedAt = &now
			r.tickets[i].UpdatedAt = now
			ticket := r.tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.Ticket, 0, len(r.tickets))
	for i := range r.tickets {
		if filter.RequesterID != nil && r.tickets[i].RequesterID != *filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.tickets[i].Status) {
			continue
		}
		matched = append(matched, r.tickets[i])
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *memoryRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[domain.TicketStatus]int)
	for i := range r.tickets {
		counts[r.tickets[i].Status]++
	}
	return counts, nil
}

func (r *memoryRepository) findOpen(match func(*domain.Ticket) bool) (*domain.Ticket, error) {
	for i := range r.tickets {
		if r.tickets[i].Status == domain.TicketStatusOpen && match(&r.tickets[i]) {
			ticket := r.tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

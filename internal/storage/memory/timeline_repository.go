package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// timelineRepositoryInMemory хранит хронику выдач в памяти.
// Список событий каждой выдачи поддерживается отсортированным по времени.
type timelineRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TimelineEvent
}

// NewTimelineRepository создаёт in-memory реализацию TimelineRepository.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{events: make(map[string][]domain.TimelineEvent)}
}

// Append добавляет событие; нулевое время заменяется текущим.
func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	timeline := append(r.events[event.LoanID], event)
	if !sort.SliceIsSorted(timeline, func(i, j int) bool {
		return timeline[i].Occurred.Before(timeline[j].Occurred)
	}) {
		sort.SliceStable(timeline, func(i, j int) bool {
			return timeline[i].Occurred.Before(timeline[j].Occurred)
		})
	}
	r.events[event.LoanID] = timeline

	return nil
}

// List возвращает копию хроники выдачи в хронологическом порядке.
func (r *timelineRepositoryInMemory) List(loanID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.TimelineEvent(nil), r.events[loanID]...), nil
}

var _ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)

package memory

import (
	"sort"
	"strings"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// userRepositoryInMemory — реализация UserRepository поверх общего Store.
type userRepositoryInMemory struct {
	store *Store
}

// Create сохраняет нового читателя, если ID ещё не занят.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.store.users[user.ID] = user
	return nil
}

// Get возвращает читателя или ErrUserNotFound, если его нет.
func (r *userRepositoryInMemory) Get(id string) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// List возвращает читателей, ограничивая выборку limit (если >0).
func (r *userRepositoryInMemory) List(limit int) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		result = append(result, user)
	}
	sortUsers(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByState возвращает читателей в заданном состоянии.
func (r *userRepositoryInMemory) ListByState(state domain.UserState) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.User, 0)
	for _, user := range r.store.users {
		if user.State == state {
			result = append(result, user)
		}
	}
	sortUsers(result)
	return result, nil
}

// Search ищет читателей по подстроке имени или фамилии без учёта регистра.
func (r *userRepositoryInMemory) Search(text string) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(text)
	result := make([]domain.User, 0)
	for _, user := range r.store.users {
		if strings.Contains(strings.ToLower(user.Name), needle) ||
			strings.Contains(strings.ToLower(user.LastName), needle) {
			result = append(result, user)
		}
	}
	sortUsers(result)
	return result, nil
}

// Save перезаписывает читателя, проверяя версию (optimistic locking).
func (r *userRepositoryInMemory) Save(user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}
	user.Version++
	r.store.users[user.ID] = user
	return nil
}

// Delete удаляет читателя или возвращает ErrUserNotFound.
func (r *userRepositoryInMemory) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)

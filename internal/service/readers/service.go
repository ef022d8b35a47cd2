package readers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

// ValidationError агрегирует замечания к описательным полям записи.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	return errors.Join(e.Errs...).Error()
}

// NewUser описывает входные данные регистрации читателя.
type NewUser struct {
	Name     string
	LastName string
	Email    string
	Phone    string
	Address  string
}

// Service реализует CRUD читателей. Поле State этот сервис не пишет:
// его меняет только оркестратор выдач.
type Service struct {
	users  domain.UserRepository
	logger *log.Entry
}

// NewService создаёт сервис читателей.
func NewService(users domain.UserRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "readers")
	}
	return &Service{users: users, logger: logger}
}

// Create регистрирует читателя в состоянии "without_loan".
func (s *Service) Create(input NewUser) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		RegisteredAt: now,
		State:        domain.UserStateWithoutLoan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if errs := user.ValidateInvariants(); len(errs) > 0 {
		return domain.User{}, &ValidationError{Errs: errs}
	}
	if err := s.users.Create(user); err != nil {
		s.logger.WithError(err).WithField("email", user.Email).Warn("user registration failed")
		return domain.User{}, err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Get возвращает читателя по идентификатору.
func (s *Service) Get(id string) (domain.User, error) {
	return s.users.Get(id)
}

// List возвращает читателей.
func (s *Service) List(limit int) ([]domain.User, error) {
	return s.users.List(limit)
}

// Update заменяет описательные поля читателя. Состояние и версия берутся
// из текущей записи, что бы ни прислал вызывающий.
func (s *Service) Update(id string, input NewUser) (domain.User, error) {
	current, err := s.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}

	updated := current
	updated.Name = input.Name
	updated.LastName = input.LastName
	updated.Email = input.Email
	updated.Phone = input.Phone
	updated.Address = input.Address
	updated.UpdatedAt = time.Now().UTC()

	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return domain.User{}, &ValidationError{Errs: errs}
	}
	if err := s.users.Save(updated); err != nil {
		return domain.User{}, err
	}

	updated.Version++
	return updated, nil
}

// Delete удаляет читателя. Читатель с активной выдачей не удаляется.
func (s *Service) Delete(id string) (domain.User, error) {
	user, err := s.users.Get(id)
	if err != nil {
		return domain.User{}, err
	}
	if user.State == domain.UserStateWithLoan {
		return domain.User{}, domain.ErrUserHasLoan
	}
	if err := s.users.Delete(id); err != nil {
		return domain.User{}, err
	}

	s.logger.WithField("user_id", id).Info("user removed")
	return user, nil
}

// Search ищет читателей по подстроке имени или фамилии.
func (s *Service) Search(text string) ([]domain.User, error) {
	return s.users.Search(text)
}

// ListWithLoan возвращает читателей с активной выдачей.
func (s *Service) ListWithLoan() ([]domain.User, error) {
	return s.users.ListByState(domain.UserStateWithLoan)
}

// ListWithoutLoan возвращает читателей без активной выдачи.
func (s *Service) ListWithoutLoan() ([]domain.User, error) {
	return s.users.ListByState(domain.UserStateWithoutLoan)
}

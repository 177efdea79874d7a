// Package fake provides in-memory repositories for service tests.
package fake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

type Clinics struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]model.Clinic
	Gets  int
	GetFn func(id uuid.UUID) error
}

func NewClinics(clinics ...*model.Clinic) *Clinics {
	c := &Clinics{rows: map[uuid.UUID]model.Clinic{}}
	for _, cl := range clinics {
		c.rows[cl.ID] = *cl
	}
	return c
}

func (r *Clinics) Create(_ context.Context, clinic *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now().UTC()
	clinic.UpdatedAt = clinic.CreatedAt
	r.rows[clinic.ID] = *clinic
	return nil
}

func (r *Clinics) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets++
	if r.GetFn != nil {
		if err := r.GetFn(id); err != nil {
			return nil, err
		}
	}
	c, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *Clinics) Update(_ context.Context, clinic *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[clinic.ID]; !ok {
		return repository.ErrNotFound
	}
	clinic.UpdatedAt = time.Now().UTC()
	r.rows[clinic.ID] = *clinic
	return nil
}

func (r *Clinics) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Clinics) List(_ context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Clinic{}
	for _, c := range r.rows {
		c := c
		if filter != nil && filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter != nil && filter.Search != "" &&
			!strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Veterinarians struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Veterinarian
}

func NewVeterinarians(vets ...*model.Veterinarian) *Veterinarians {
	v := &Veterinarians{rows: map[uuid.UUID]model.Veterinarian{}}
	for _, vet := range vets {
		v.rows[vet.ID] = *vet
	}
	return v
}

func (r *Veterinarians) Create(_ context.Context, vet *model.Veterinarian) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.UserID == vet.UserID {
			return repository.ErrDuplicate
		}
	}
	vet.ID = uuid.New()
	if vet.Status == "" {
		vet.Status = model.VeterinarianStatusPending
	}
	r.rows[vet.ID] = *vet
	return nil
}

func (r *Veterinarians) Get(_ context.Context, id uuid.UUID) (*model.Veterinarian, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *Veterinarians) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Veterinarian, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.UserID == userID {
			v := v
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Veterinarians) UpdateStatus(_ context.Context, id uuid.UUID, status model.VeterinarianStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.Status = status
	r.rows[id] = v
	return nil
}

func (r *Veterinarians) List(_ context.Context, filter *model.VeterinarianFilter) ([]*model.Veterinarian, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Veterinarian{}
	for _, v := range r.rows {
		v := v
		if filter != nil && filter.ClinicID != uuid.Nil && v.ClinicID != filter.ClinicID {
			continue
		}
		if filter != nil && filter.Status != "" && v.Status != filter.Status {
			continue
		}
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Pets struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Pet
}

func NewPets(pets ...*model.Pet) *Pets {
	p := &Pets{rows: map[uuid.UUID]model.Pet{}}
	for _, pet := range pets {
		p.rows[pet.ID] = *pet
	}
	return p
}

func (r *Pets) Create(_ context.Context, pet *model.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pet.ID = uuid.New()
	r.rows[pet.ID] = *pet
	return nil
}

func (r *Pets) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *Pets) Update(_ context.Context, pet *model.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[pet.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[pet.ID] = *pet
	return nil
}

func (r *Pets) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Pets) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Pet{}
	for _, p := range r.rows {
		p := p
		if p.OwnerID == ownerID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Users struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.User
}

func NewUsers(users ...*model.User) *Users {
	u := &Users{rows: map[uuid.UUID]model.User{}}
	for _, user := range users {
		u.rows[user.ID] = *user
	}
	return u
}

func (r *Users) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.rows {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	if user.Preferences == nil {
		user.Preferences = model.JSONMap{}
	}
	r.rows[user.ID] = *user
	return nil
}

func (r *Users) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.rows {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) UpdatePreferences(_ context.Context, id uuid.UUID, prefs model.JSONMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Preferences = prefs
	r.rows[id] = u
	return nil
}

// Appointments enforces the one-live-booking-per-slot rule like the real
// unique index does.
type Appointments struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]model.Appointment
	BookedErr   error
	BookedCalls int
}

func NewAppointments(appointments ...*model.Appointment) *Appointments {
	a := &Appointments{rows: map[uuid.UUID]model.Appointment{}}
	for _, apt := range appointments {
		a.rows[apt.ID] = *apt
	}
	return a
}

func (r *Appointments) Create(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.VeterinarianID == apt.VeterinarianID && existing.Date == apt.Date &&
			existing.Time == apt.Time && existing.Status != model.AppointmentStatusCancelled {
			return repository.ErrDuplicate
		}
	}
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now().UTC()
	apt.UpdatedAt = apt.CreatedAt
	r.rows[apt.ID] = *apt
	return nil
}

func (r *Appointments) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *Appointments) UpdateStatus(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[apt.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = apt.Status
	existing.CancelReason = apt.CancelReason
	existing.UpdatedAt = time.Now().UTC()
	r.rows[apt.ID] = existing
	return nil
}

func (r *Appointments) List(_ context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range r.rows {
		a := a
		if filter != nil {
			if filter.ClinicID != uuid.Nil && a.ClinicID != filter.ClinicID {
				continue
			}
			if filter.VeterinarianID != uuid.Nil && a.VeterinarianID != filter.VeterinarianID {
				continue
			}
			if filter.OwnerID != uuid.Nil && a.OwnerID != filter.OwnerID {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.Date != "" && a.Date != filter.Date {
				continue
			}
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (r *Appointments) ListBookedTimes(_ context.Context, vetID uuid.UUID, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BookedCalls++
	if r.BookedErr != nil {
		return nil, r.BookedErr
	}
	out := []string{}
	for _, a := range r.rows {
		if a.VeterinarianID == vetID && a.Date == date && a.Status != model.AppointmentStatusCancelled {
			out = append(out, a.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

type Notifications struct {
	mu   sync.Mutex
	rows []model.Notification
}

func NewNotifications() *Notifications { return &Notifications{} }

func (r *Notifications) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *Notifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Notification{}
	for i := len(r.rows) - 1; i >= 0; i-- {
		n := r.rows[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, &n)
	}
	start := page.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + page.Limit()
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *Notifications) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *Notifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && !r.rows[i].Read {
			r.rows[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *Notifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID && !row.Read {
			n++
		}
	}
	return n, nil
}

// All returns every stored notification, oldest first.
func (r *Notifications) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.rows...)
}

type Outbox struct {
	mu     sync.Mutex
	Events []*model.OutboxEvent
	clock  time.Time
}

func NewOutbox() *Outbox { return &Outbox{} }

func (r *Outbox) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now().UTC()
	r.Events = append(r.Events, event)
	return nil
}

// GetPendingEventsWithLock claims deliverable events the way the postgres
// store does: they turn PROCESSING and their RetryCount goes up by one.
func (r *Outbox) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	out := []*model.OutboxEvent{}
	for _, e := range r.Events {
		if len(out) >= limit {
			break
		}
		due := e.Status == model.OutboxStatusPending ||
			(e.Status == model.OutboxStatusRetry && (e.RetryAt == nil || !e.RetryAt.After(now)))
		if !due {
			continue
		}
		e.Status = model.OutboxStatusProcessing
		e.RetryCount++
		e.UpdatedAt = now
		out = append(out, e)
	}
	return out, nil
}

func (r *Outbox) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errMsg
			e.RetryAt = nil
			if status == model.OutboxStatusProcessed {
				at := r.now()
				e.ProcessedAt = &at
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *Outbox) ScheduleRetry(_ context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.ID == id {
			e.Status = model.OutboxStatusRetry
			e.ErrorMessage = &errMsg
			e.RetryAt = &retryAt
			return nil
		}
	}
	return repository.ErrNotFound
}

// SetNow pins the clock used to decide whether a RETRY event is due.
func (r *Outbox) SetNow(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = t
}

func (r *Outbox) now() time.Time {
	if r.clock.IsZero() {
		return time.Now().UTC()
	}
	return r.clock
}

func (r *Outbox) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Events[:0]
	var n int64
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.Events = kept
	return n, nil
}

// Kinds returns "table:TYPE" for every recorded event, in order.
func (r *Outbox) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.TableName + ":" + e.EventType
	}
	return out
}

var (
	_ repository.ClinicRepository       = (*Clinics)(nil)
	_ repository.VeterinarianRepository = (*Veterinarians)(nil)
	_ repository.PetRepository          = (*Pets)(nil)
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.AppointmentRepository  = (*Appointments)(nil)
	_ repository.NotificationRepository = (*Notifications)(nil)
	_ repository.OutboxRepository       = (*Outbox)(nil)
)

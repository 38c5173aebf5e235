package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/fanout"
)

type mockTemplates struct {
	getByNameFn func(ctx context.Context, name string) (*domain.Template, error)
}

func (m *mockTemplates) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	return m.getByNameFn(ctx, name)
}

type mockOffices struct {
	getByNameFn         func(ctx context.Context, name string) (*domain.Office, error)
	upsertFn            func(ctx context.Context, office *domain.Office) error
	upsertEntityFn      func(ctx context.Context, entity *domain.OfficeEntity) (uuid.UUID, error)
	deleteEntityFn      func(ctx context.Context, officeID uuid.UUID, template, key string) error
	countLiveEntitiesFn func(ctx context.Context, officeID uuid.UUID, template, key string) (int, error)
}

func (m *mockOffices) GetByName(ctx context.Context, name string) (*domain.Office, error) {
	return m.getByNameFn(ctx, name)
}

func (m *mockOffices) Upsert(ctx context.Context, office *domain.Office) error {
	if m.upsertFn == nil {
		return nil
	}
	return m.upsertFn(ctx, office)
}

func (m *mockOffices) UpsertEntity(ctx context.Context, entity *domain.OfficeEntity) (uuid.UUID, error) {
	if m.upsertEntityFn == nil {
		return uuid.New(), nil
	}
	return m.upsertEntityFn(ctx, entity)
}

func (m *mockOffices) DeleteEntity(ctx context.Context, officeID uuid.UUID, template, key string) error {
	if m.deleteEntityFn == nil {
		return nil
	}
	return m.deleteEntityFn(ctx, officeID, template, key)
}

func (m *mockOffices) CountLiveEntities(ctx context.Context, officeID uuid.UUID, template, key string) (int, error) {
	if m.countLiveEntitiesFn == nil {
		return 0, nil
	}
	return m.countLiveEntitiesFn(ctx, officeID, template, key)
}

type mockActivities struct {
	byID      map[uuid.UUID]*domain.Activity
	assignees map[uuid.UUID][]domain.Assignee
	created   []*domain.Activity
	updated   []*domain.Activity
}

func newMockActivities() *mockActivities {
	return &mockActivities{
		byID:      make(map[uuid.UUID]*domain.Activity),
		assignees: make(map[uuid.UUID][]domain.Assignee),
	}
}

func (m *mockActivities) GetByID(_ context.Context, id uuid.UUID) (*domain.Activity, error) {
	act, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, domain.ErrNotFound)
	}
	cp := *act
	return &cp, nil
}

func (m *mockActivities) Create(_ context.Context, act *domain.Activity) error {
	cp := *act
	m.byID[act.ID] = &cp
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockActivities) Update(_ context.Context, act *domain.Activity) error {
	if _, ok := m.byID[act.ID]; !ok {
		return fmt.Errorf("activity %s: %w", act.ID, domain.ErrNotFound)
	}
	cp := *act
	m.byID[act.ID] = &cp
	m.updated = append(m.updated, &cp)
	return nil
}

func (m *mockActivities) UpsertAssignee(_ context.Context, assignee domain.Assignee) error {
	list := m.assignees[assignee.ActivityID]
	for i, a := range list {
		if a.PhoneNumber == assignee.PhoneNumber {
			list[i] = assignee
			return nil
		}
	}
	m.assignees[assignee.ActivityID] = append(list, assignee)
	return nil
}

func (m *mockActivities) DeleteAssignee(_ context.Context, activityID uuid.UUID, phone string) error {
	list := m.assignees[activityID]
	for i, a := range list {
		if a.PhoneNumber == phone {
			m.assignees[activityID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockActivities) ListAssignees(_ context.Context, activityID uuid.UUID) ([]domain.Assignee, error) {
	return m.assignees[activityID], nil
}

type mirrorKey struct {
	phone      string
	activityID uuid.UUID
}

type mockProfiles struct {
	placeholders []string
	identities   map[string]uuid.UUID
	mirrors      map[mirrorKey]domain.ProfileActivity
}

func newMockProfiles() *mockProfiles {
	return &mockProfiles{
		identities: make(map[string]uuid.UUID),
		mirrors:    make(map[mirrorKey]domain.ProfileActivity),
	}
}

func (m *mockProfiles) UpsertIdentity(_ context.Context, phone string, uid uuid.UUID, _ string) error {
	m.identities[phone] = uid
	return nil
}

func (m *mockProfiles) EnsurePlaceholder(_ context.Context, phone string) error {
	m.placeholders = append(m.placeholders, phone)
	return nil
}

func (m *mockProfiles) GetActivity(_ context.Context, phone string, activityID uuid.UUID) (*domain.ProfileActivity, error) {
	mirror, ok := m.mirrors[mirrorKey{phone, activityID}]
	if !ok {
		return nil, fmt.Errorf("mirror: %w", domain.ErrNotFound)
	}
	return &mirror, nil
}

func (m *mockProfiles) UpsertActivity(_ context.Context, mirror domain.ProfileActivity) error {
	m.mirrors[mirrorKey{mirror.PhoneNumber, mirror.ActivityID}] = mirror
	return nil
}

func (m *mockProfiles) DeleteActivity(_ context.Context, phone string, activityID uuid.UUID) error {
	delete(m.mirrors, mirrorKey{phone, activityID})
	return nil
}

type mockAddendums struct {
	created []*domain.Addendum
}

func (m *mockAddendums) Create(_ context.Context, add *domain.Addendum) error {
	cp := *add
	m.created = append(m.created, &cp)
	return nil
}

type mockSubscriptions struct {
	created  []*domain.Subscription
	existsFn func(ctx context.Context, phone, template, office string) (bool, error)
}

func (m *mockSubscriptions) Create(_ context.Context, sub *domain.Subscription) error {
	cp := *sub
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockSubscriptions) Exists(ctx context.Context, phone, template, office string) (bool, error) {
	if m.existsFn == nil {
		return true, nil
	}
	return m.existsFn(ctx, phone, template, office)
}

type mockDispatcher struct {
	events []fanout.Event
}

func (m *mockDispatcher) Enqueue(_ context.Context, event fanout.Event) error {
	m.events = append(m.events, event)
	return nil
}

// noopTx runs the function directly; atomicity is the real TxManager's
// concern, not these tests'.
type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc           *Service
	templates     *mockTemplates
	offices       *mockOffices
	activities    *mockActivities
	profiles      *mockProfiles
	addendums     *mockAddendums
	subscriptions *mockSubscriptions
	dispatcher    *mockDispatcher
	now           time.Time
}

func newFixture() *fixture {
	f := &fixture{
		templates:     &mockTemplates{},
		offices:       &mockOffices{},
		activities:    newMockActivities(),
		profiles:      newMockProfiles(),
		addendums:     &mockAddendums{},
		subscriptions: &mockSubscriptions{},
		dispatcher:    &mockDispatcher{},
		now:           time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	log := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	f.svc = NewService(log, f.templates, f.offices, f.activities, f.profiles,
		f.addendums, f.subscriptions, f.dispatcher, nil, noopTx{})
	f.svc.now = func() time.Time { return f.now }
	return f
}

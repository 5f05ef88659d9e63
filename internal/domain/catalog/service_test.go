package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"companygrow/internal/domain/performance"
)

// memStore is an in-memory StoreAPI for exercising the tracker's semantics
// without a database. InTx applies mutations directly; the transactional
// guarantees themselves are covered by the pgx store and the journey tests.
type memStore struct {
	courses     map[string]Course
	users       map[string]bool
	enrollments map[string]*Enrollment // key userID|courseID
	periods     map[string]string      // userID -> periodID
	goals       map[string]*memGoal    // key goalID
	badges      []memBadge
	nextID      int
}

type memGoal struct {
	id          string
	periodID    string
	userID      string
	title       string
	mode        string
	status      string
	courseID    string
	completedAt *time.Time
}

type memBadge struct {
	userID      string
	title       string
	badgeType   string
	description string
}

func newMemStore() *memStore {
	return &memStore{
		courses:     map[string]Course{},
		users:       map[string]bool{},
		enrollments: map[string]*Enrollment{},
		periods:     map[string]string{},
		goals:       map[string]*memGoal{},
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) addCourse(name, badge string, moduleCount int) Course {
	c := Course{ID: m.id("course"), Name: name, BadgeReward: badge}
	for i := 0; i < moduleCount; i++ {
		c.Content = append(c.Content, Module{ID: fmt.Sprintf("%s-m%d", c.ID, i+1), Position: i + 1})
	}
	m.courses[c.ID] = c
	return c
}

func (m *memStore) addUser() string {
	id := m.id("user")
	m.users[id] = true
	return id
}

func (m *memStore) goalFor(userID, courseID string) *memGoal {
	for _, g := range m.goals {
		if g.userID == userID && g.courseID == courseID {
			return g
		}
	}
	return nil
}

func (m *memStore) ListCourses(ctx context.Context) ([]Course, error) {
	out := []Course{}
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) GetCourse(ctx context.Context, courseID string) (Course, error) {
	c, ok := m.courses[courseID]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c, nil
}

func (m *memStore) CreateCourse(ctx context.Context, details CourseDetails) (string, error) {
	c := m.addCourse(details.Name, details.BadgeReward, len(details.Content))
	return c.ID, nil
}

func (m *memStore) UpdateCourse(ctx context.Context, courseID string, details CourseDetails) error {
	if _, ok := m.courses[courseID]; !ok {
		return ErrCourseNotFound
	}
	return nil
}

func (m *memStore) DeleteCourse(ctx context.Context, courseID string) error {
	if _, ok := m.courses[courseID]; !ok {
		return ErrCourseNotFound
	}
	delete(m.courses, courseID)
	return nil
}

func (m *memStore) UserExists(ctx context.Context, userID string) (bool, error) {
	return m.users[userID], nil
}

func (m *memStore) GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, bool, error) {
	e, ok := m.enrollments[userID+"|"+courseID]
	if !ok {
		return Enrollment{}, false, nil
	}
	out := *e
	out.CompletedModules = append([]string{}, e.CompletedModules...)
	return out, true, nil
}

func (m *memStore) ListUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	out := []Enrollment{}
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx TxStore) error) error {
	return fn(&memTx{store: m})
}

type memTx struct {
	store *memStore
}

func (t *memTx) InsertEnrollment(ctx context.Context, userID, courseID string) (string, error) {
	key := userID + "|" + courseID
	if _, ok := t.store.enrollments[key]; ok {
		return "", errors.New("duplicate enrollment")
	}
	e := &Enrollment{
		ID:               t.store.id("enr"),
		CourseID:         courseID,
		UserID:           userID,
		EnrolledAt:       time.Now(),
		CompletedModules: []string{},
	}
	t.store.enrollments[key] = e
	return e.ID, nil
}

func (t *memTx) enrollmentByID(enrollmentID string) *Enrollment {
	for _, e := range t.store.enrollments {
		if e.ID == enrollmentID {
			return e
		}
	}
	return nil
}

func (t *memTx) MarkModuleCompleted(ctx context.Context, enrollmentID, moduleID string) (bool, error) {
	e := t.enrollmentByID(enrollmentID)
	if e == nil {
		return false, errors.New("enrollment missing")
	}
	for _, id := range e.CompletedModules {
		if id == moduleID {
			return false, nil
		}
	}
	e.CompletedModules = append(e.CompletedModules, moduleID)
	return true, nil
}

func (t *memTx) CompletedModuleCount(ctx context.Context, enrollmentID string) (int, error) {
	e := t.enrollmentByID(enrollmentID)
	if e == nil {
		return 0, errors.New("enrollment missing")
	}
	return len(e.CompletedModules), nil
}

func (t *memTx) UpdateEnrollmentProgress(ctx context.Context, enrollmentID string, progress int, completedAt *time.Time) error {
	e := t.enrollmentByID(enrollmentID)
	if e == nil {
		return errors.New("enrollment missing")
	}
	e.Progress = progress
	e.CompletedAt = completedAt
	return nil
}

func (t *memTx) EnsureActivePeriod(ctx context.Context, userID string) (string, error) {
	if id, ok := t.store.periods[userID]; ok {
		return id, nil
	}
	id := t.store.id("period")
	t.store.periods[userID] = id
	return id, nil
}

func (t *memTx) InsertGoal(ctx context.Context, periodID, title, mode, status, courseID string) error {
	var userID string
	for uid, pid := range t.store.periods {
		if pid == periodID {
			userID = uid
		}
	}
	g := &memGoal{
		id:       t.store.id("goal"),
		periodID: periodID,
		userID:   userID,
		title:    title,
		mode:     mode,
		status:   status,
		courseID: courseID,
	}
	t.store.goals[g.id] = g
	return nil
}

func (t *memTx) GoalForCourse(ctx context.Context, userID, courseID string) (string, string, bool, error) {
	if g := t.store.goalFor(userID, courseID); g != nil {
		return g.id, g.status, true, nil
	}
	return "", "", false, nil
}

func (t *memTx) CompleteGoal(ctx context.Context, goalID string, completedAt time.Time) error {
	g, ok := t.store.goals[goalID]
	if !ok {
		return errors.New("goal missing")
	}
	g.status = performance.GoalStatusCompleted
	g.completedAt = &completedAt
	return nil
}

func (t *memTx) SetGoalStatus(ctx context.Context, goalID, status string) error {
	g, ok := t.store.goals[goalID]
	if !ok {
		return errors.New("goal missing")
	}
	g.status = status
	return nil
}

func (t *memTx) AwardBadge(ctx context.Context, userID, title, badgeType, description string) error {
	t.store.badges = append(t.store.badges, memBadge{userID: userID, title: title, badgeType: badgeType, description: description})
	return nil
}

func TestEnrollCreatesRecordAndPendingGoal(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Blue", 4)
	userID := store.addUser()

	enrollment, err := svc.Enroll(context.Background(), userID, course.ID)
	if err != nil {
		t.Fatalf("unexpected enroll error: %v", err)
	}
	if enrollment.Progress != 0 {
		t.Fatalf("expected progress 0 after enroll, got %d", enrollment.Progress)
	}
	if len(enrollment.CompletedModules) != 0 {
		t.Fatalf("expected empty completed set, got %v", enrollment.CompletedModules)
	}

	goal := store.goalFor(userID, course.ID)
	if goal == nil {
		t.Fatal("expected a goal to be created on enroll")
	}
	if goal.title != "Go Fundamentals" || goal.mode != performance.GoalModeTraining {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if goal.status != performance.GoalStatusPending {
		t.Fatalf("expected pending goal, got %q", goal.status)
	}
}

func TestEnrollTwiceRejected(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Blue", 4)
	userID := store.addUser()

	if _, err := svc.Enroll(context.Background(), userID, course.ID); err != nil {
		t.Fatalf("first enroll failed: %v", err)
	}
	_, err := svc.Enroll(context.Background(), userID, course.ID)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestEnrollUnknownEntities(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Blue", 4)
	userID := store.addUser()

	if _, err := svc.Enroll(context.Background(), userID, "missing"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := svc.Enroll(context.Background(), "missing", course.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCompleteModuleFourModuleScenario(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Purple", 4)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	progress, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID)
	if err != nil {
		t.Fatalf("complete m1 failed: %v", err)
	}
	if progress != 25 {
		t.Fatalf("expected progress 25 after m1, got %d", progress)
	}
	if goal := store.goalFor(userID, course.ID); goal.status != performance.GoalStatusInProgress {
		t.Fatalf("expected in-progress goal after first module, got %q", goal.status)
	}

	wantProgress := []int{50, 75, 100}
	for i, moduleIdx := range []int{1, 2, 3} {
		progress, err = svc.CompleteModule(ctx, userID, course.ID, course.Content[moduleIdx].ID)
		if err != nil {
			t.Fatalf("complete module %d failed: %v", moduleIdx+1, err)
		}
		if progress != wantProgress[i] {
			t.Fatalf("expected progress %d, got %d", wantProgress[i], progress)
		}
	}

	goal := store.goalFor(userID, course.ID)
	if goal.status != performance.GoalStatusCompleted {
		t.Fatalf("expected completed goal at 100%%, got %q", goal.status)
	}
	if goal.completedAt == nil {
		t.Fatal("expected goal completedAt to be set")
	}

	enrollment, _, err := store.GetEnrollment(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("get enrollment failed: %v", err)
	}
	if enrollment.CompletedAt == nil {
		t.Fatal("expected enrollment completedAt to be set at 100%")
	}

	if len(store.badges) != 1 {
		t.Fatalf("expected exactly one badge, got %d", len(store.badges))
	}
	if store.badges[0].title != "Purple" || store.badges[0].badgeType != performance.BadgeTypeCourse {
		t.Fatalf("unexpected badge %+v", store.badges[0])
	}
}

func TestCompleteModuleIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Green", 4)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	first, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID)
	if err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	second, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID)
	if err != nil {
		t.Fatalf("repeat completion failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeat completion changed progress: %d then %d", first, second)
	}

	enrollment, _, _ := store.GetEnrollment(ctx, userID, course.ID)
	if len(enrollment.CompletedModules) != 1 {
		t.Fatalf("expected one completed module, got %v", enrollment.CompletedModules)
	}
}

func TestCompletedGoalStaysCompleted(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Red", 2)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	for _, m := range course.Content {
		if _, err := svc.CompleteModule(ctx, userID, course.ID, m.ID); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
	}

	firstCompleted := store.goalFor(userID, course.ID).completedAt

	// No-op completion calls after 100%.
	for i := 0; i < 3; i++ {
		progress, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID)
		if err != nil {
			t.Fatalf("no-op completion failed: %v", err)
		}
		if progress != 100 {
			t.Fatalf("expected progress to stay 100, got %d", progress)
		}
	}

	goal := store.goalFor(userID, course.ID)
	if goal.status != performance.GoalStatusCompleted {
		t.Fatalf("goal left completed state: %q", goal.status)
	}
	if goal.completedAt != firstCompleted {
		t.Fatal("goal completedAt changed on no-op completion")
	}
	if len(store.badges) != 1 {
		t.Fatalf("badge awarded more than once: %d", len(store.badges))
	}
}

func TestCompleteModuleValidation(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Cyan", 3)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if _, err := svc.CompleteModule(ctx, userID, course.ID, "bogus-module"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if _, err := svc.CompleteModule(ctx, userID, "missing", course.Content[0].ID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := svc.CompleteModule(ctx, "missing", course.ID, course.Content[0].ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCompleteModuleCreatesMissingGoal(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Blue", 2)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	// Simulate a lost goal record: enrollment exists, goal is gone.
	for id, g := range store.goals {
		if g.userID == userID && g.courseID == course.ID {
			delete(store.goals, id)
		}
	}

	if _, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID); err != nil {
		t.Fatalf("complete with missing goal failed: %v", err)
	}
	goal := store.goalFor(userID, course.ID)
	if goal == nil {
		t.Fatal("expected missing goal to be recreated")
	}
	if goal.status != performance.GoalStatusInProgress {
		t.Fatalf("expected recreated goal in-progress, got %q", goal.status)
	}
}

func TestCourseStatus(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	course := store.addCourse("Go Fundamentals", "Green", 4)
	userID := store.addUser()
	ctx := context.Background()

	if _, err := svc.CourseStatus(ctx, userID, course.ID); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled for non-enrolled user, got %v", err)
	}

	if _, err := svc.Enroll(ctx, userID, course.ID); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if _, err := svc.CompleteModule(ctx, userID, course.ID, course.Content[0].ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	status, err := svc.CourseStatus(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("course status failed: %v", err)
	}
	if status.Progress != 25 {
		t.Fatalf("expected progress 25, got %d", status.Progress)
	}
	if len(status.CompletedModules) != 1 || status.CompletedModules[0] != course.Content[0].ID {
		t.Fatalf("unexpected completed modules %v", status.CompletedModules)
	}
	if len(status.CourseContent) != 4 {
		t.Fatalf("expected full course content, got %d modules", len(status.CourseContent))
	}
}

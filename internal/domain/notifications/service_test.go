package notifications

import (
	"context"
	"errors"
	"testing"
)

type storedNotification struct {
	userID string
	item   Notification
}

type fakeStore struct {
	created  []storedNotification
	emails   map[string]string
	emailErr error
}

func (f *fakeStore) CreateNotification(_ context.Context, userID, ntype, title, body string) error {
	f.created = append(f.created, storedNotification{
		userID: userID,
		item:   Notification{Type: ntype, Title: title, Body: body},
	})
	return nil
}

func (f *fakeStore) UserEmail(_ context.Context, userID string) (string, error) {
	if f.emailErr != nil {
		return "", f.emailErr
	}
	return f.emails[userID], nil
}

func (f *fakeStore) ListNotifications(_ context.Context, userID string, _, _ int) ([]Notification, error) {
	var out []Notification
	for _, n := range f.created {
		if n.userID == userID {
			out = append(out, n.item)
		}
	}
	return out, nil
}

func (f *fakeStore) CountNotifications(_ context.Context, userID string) (int, error) {
	items, _ := f.ListNotifications(context.Background(), userID, 0, 0)
	return len(items), nil
}

func (f *fakeStore) MarkRead(_ context.Context, _, _ string) error { return nil }

type sentMail struct {
	from, to, subject string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, from, to, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{from: from, to: to, subject: subject})
	return nil
}

func TestCreatePersistsAndSendsEmail(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{}
	svc := New(store, mailer, true, "portal@example.com")

	if err := svc.Create(context.Background(), "u1", TypeEnrollment, "Enrolled", "You enrolled in Go Basics"); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one stored notification, got %d", len(store.created))
	}
	if store.created[0].item.Type != TypeEnrollment {
		t.Fatalf("unexpected type %q", store.created[0].item.Type)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to != "u1@example.com" || mailer.sent[0].from != "portal@example.com" {
		t.Fatalf("unexpected email addressing: %+v", mailer.sent[0])
	}
	if mailer.sent[0].subject != "Enrolled" {
		t.Fatalf("unexpected subject %q", mailer.sent[0].subject)
	}
}

func TestCreateSkipsEmailWhenDisabled(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{}
	svc := New(store, mailer, false, "")

	if err := svc.Create(context.Background(), "u1", TypeBadgeEarned, "Badge earned", "Blue badge"); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected stored notification, got %d", len(store.created))
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(mailer.sent))
	}
}

func TestCreateSurvivesEmailFailures(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := New(store, mailer, true, "")

	if err := svc.Create(context.Background(), "u1", TypeProjectCompleted, "Project done", "Apollo shipped"); err != nil {
		t.Fatalf("expected create to succeed despite mailer error, got %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected stored notification, got %d", len(store.created))
	}

	store.emailErr = errors.New("lookup failed")
	if err := svc.Create(context.Background(), "u1", TypeProjectCompleted, "Project done", "Apollo shipped"); err != nil {
		t.Fatalf("expected create to succeed despite lookup error, got %v", err)
	}
}

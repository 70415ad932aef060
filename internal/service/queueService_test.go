package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ise-alumni/portal-sub001/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueFixture struct {
	queueRepo *fakeQueueRepo
	unsubRepo *fakeUnsubRepo
	mail      *fakeMailer
	queue     *fakePublisher
	svc       QueueService
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		queueRepo: newFakeQueueRepo(),
		unsubRepo: newFakeUnsubRepo(),
		mail:      newFakeMailer(),
		queue:     &fakePublisher{},
	}
	f.svc = NewQueueService(f.queueRepo, f.unsubRepo, f.mail, f.queue, 0)
	return f
}

func welcomeRequest(userID string) *entity.EnqueueEmailRequest {
	return &entity.EnqueueEmailRequest{
		UserID:    userID,
		EmailType: entity.EmailTypeWelcome,
		Recipient: "grad@example.com",
		Subject:   "Welcome to the portal",
		Body:      "# Welcome\n\nGlad to have you, **Sam**.",
	}
}

// TestEnqueue тестирует постановку письма в очередь
func TestEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending entry and schedules dispatch", func(t *testing.T) {
		f := newQueueFixture()

		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))

		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, entity.QueueStatusPending, entry.Status)
		assert.Empty(t, f.mail.sent) // delivery happens at dispatch, not enqueue

		require.Len(t, f.queue.published, 1)
		task := f.queue.published[0]
		assert.Equal(t, TaskTypeDispatchEmail, task.Type)
		assert.Equal(t, entry.ID, task.Data["entry_id"])
	})

	t.Run("publish failure does not fail the enqueue", func(t *testing.T) {
		f := newQueueFixture()
		f.queue.publishErr = errors.New("redis down")

		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))

		require.NoError(t, err)
		assert.Equal(t, entity.QueueStatusPending, entry.Status)
	})
}

// TestDispatch тестирует доставку одной записи очереди
func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("pending entry is rendered and sent", func(t *testing.T) {
		f := newQueueFixture()
		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)

		require.NoError(t, f.svc.Dispatch(ctx, entry))

		stored, err := f.queueRepo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.QueueStatusSent, stored.Status)
		require.NotNil(t, stored.SentAt)

		require.Len(t, f.mail.sent, 1)
		mail := f.mail.sent[0]
		assert.Equal(t, "grad@example.com", mail.To)
		assert.Equal(t, "Welcome to the portal", mail.Subject)
		assert.Equal(t, "<h1>Welcome</h1>\n<p>Glad to have you, <strong>Sam</strong>.</p>", mail.HTML)
	})

	t.Run("non-pending entry is a no-op", func(t *testing.T) {
		f := newQueueFixture()
		entry := &entity.EmailQueueEntry{ID: "e1", UserID: "u1", Status: entity.QueueStatusCancelled}

		require.NoError(t, f.svc.Dispatch(ctx, entry))
		assert.Empty(t, f.mail.sent)
	})

	t.Run("unsubscribe recorded after enqueue still cancels", func(t *testing.T) {
		f := newQueueFixture()
		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)
		require.NoError(t, f.unsubRepo.Upsert(ctx, "u1", entity.EmailTypeWelcome))

		require.NoError(t, f.svc.Dispatch(ctx, entry))

		stored, _ := f.queueRepo.GetByID(ctx, entry.ID)
		assert.Equal(t, entity.QueueStatusCancelled, stored.Status)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("transport failure stores truncated message", func(t *testing.T) {
		f := newQueueFixture()
		f.mail.sendErr = errors.New(strings.Repeat("relay noise ", 100))
		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)

		require.NoError(t, f.svc.Dispatch(ctx, entry))

		stored, _ := f.queueRepo.GetByID(ctx, entry.ID)
		assert.Equal(t, entity.QueueStatusFailed, stored.Status)
		require.NotNil(t, stored.ErrorMessage)
		assert.LessOrEqual(t, len(*stored.ErrorMessage), 500)
		assert.NotContains(t, *stored.ErrorMessage, "\n")
	})

	t.Run("failed entry stays failed, no retry", func(t *testing.T) {
		f := newQueueFixture()
		f.mail.sendErr = errors.New("boom")
		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)
		require.NoError(t, f.svc.Dispatch(ctx, entry))
		f.mail.sendErr = nil

		// Another dispatch pass finds nothing pending.
		require.NoError(t, f.svc.DispatchPending(ctx))

		stored, _ := f.queueRepo.GetByID(ctx, entry.ID)
		assert.Equal(t, entity.QueueStatusFailed, stored.Status)
		assert.Empty(t, f.mail.sent)
	})
}

// TestDispatchByID тестирует обработку задачи доставки по идентификатору
func TestDispatchByID(t *testing.T) {
	ctx := context.Background()

	t.Run("missing entry is a no-op", func(t *testing.T) {
		f := newQueueFixture()

		assert.NoError(t, f.svc.DispatchByID(ctx, "gone"))
	})

	t.Run("delivers the referenced entry", func(t *testing.T) {
		f := newQueueFixture()
		entry, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)

		require.NoError(t, f.svc.DispatchByID(ctx, entry.ID))

		stored, _ := f.queueRepo.GetByID(ctx, entry.ID)
		assert.Equal(t, entity.QueueStatusSent, stored.Status)
	})
}

// TestDispatchPending тестирует пакетную доставку очереди
func TestDispatchPending(t *testing.T) {
	ctx := context.Background()
	f := newQueueFixture()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Enqueue(ctx, welcomeRequest("u1"))
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.DispatchPending(ctx))

	assert.Len(t, f.mail.sent, 3)
	entries, err := f.svc.ListByUser(ctx, "u1")
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, entity.QueueStatusSent, e.Status)
	}
}

// TestCancelPending тестирует массовую отмену ожидающих писем
func TestCancelPending(t *testing.T) {
	ctx := context.Background()

	seed := func(f *queueFixture, emailType string) *entity.EmailQueueEntry {
		req := welcomeRequest("u1")
		req.EmailType = emailType
		entry, err := f.svc.Enqueue(ctx, req)
		require.NoError(t, err)
		return entry
	}

	t.Run("specific type leaves other types pending", func(t *testing.T) {
		f := newQueueFixture()
		welcome := seed(f, entity.EmailTypeWelcome)
		digest := seed(f, entity.EmailTypeDigest)

		n, err := f.svc.CancelPending(ctx, "u1", entity.EmailTypeWelcome)

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		w, _ := f.queueRepo.GetByID(ctx, welcome.ID)
		d, _ := f.queueRepo.GetByID(ctx, digest.ID)
		assert.Equal(t, entity.QueueStatusCancelled, w.Status)
		assert.Equal(t, entity.QueueStatusPending, d.Status)
	})

	t.Run("all scope cancels everything pending", func(t *testing.T) {
		f := newQueueFixture()
		seed(f, entity.EmailTypeWelcome)
		seed(f, entity.EmailTypeDigest)

		n, err := f.svc.CancelPending(ctx, "u1", entity.ScopeAll)

		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("sent entries are untouched", func(t *testing.T) {
		f := newQueueFixture()
		entry := seed(f, entity.EmailTypeWelcome)
		require.NoError(t, f.svc.Dispatch(ctx, entry))

		n, err := f.svc.CancelPending(ctx, "u1", entity.ScopeAll)

		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		stored, _ := f.queueRepo.GetByID(ctx, entry.ID)
		assert.Equal(t, entity.QueueStatusSent, stored.Status)
	})
}

// TestSendEmail тестирует прямую отправку письма
func TestSendEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("renders markdown and sends", func(t *testing.T) {
		f := newQueueFixture()

		id, err := f.svc.SendEmail(ctx, &SendEmailRequest{
			To:       "grad@example.com",
			Subject:  "Digest",
			Markdown: "# Title\n\nSome **bold** text",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, id)
		require.Len(t, f.mail.sent, 1)
		assert.Equal(t, "<h1>Title</h1>\n<p>Some <strong>bold</strong> text</p>", f.mail.sent[0].HTML)
	})

	t.Run("unconfigured transport is rejected", func(t *testing.T) {
		f := newQueueFixture()
		f.mail.configured = false

		_, err := f.svc.SendEmail(ctx, &SendEmailRequest{
			To: "grad@example.com", Subject: "x", Markdown: "y",
		})

		assert.ErrorIs(t, err, ErrMailerNotConfigured)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("custom from is passed through", func(t *testing.T) {
		f := newQueueFixture()

		_, err := f.svc.SendEmail(ctx, &SendEmailRequest{
			To: "grad@example.com", Subject: "x", Markdown: "y",
			From: "Events Team <events@alumni.example.com>",
		})

		require.NoError(t, err)
		require.Len(t, f.mail.sent, 1)
		assert.Equal(t, "Events Team <events@alumni.example.com>", f.mail.sent[0].From)
	})
}

// TestTruncateError тестирует нормализацию текста ошибки
func TestTruncateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "multiline collapses", err: errors.New("line one\nline two"), want: "line one line two"},
		{name: "short stays intact", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateError(tt.err))
		})
	}

	t.Run("overlong is capped", func(t *testing.T) {
		msg := truncateError(errors.New(strings.Repeat("x", 1000)))
		assert.Len(t, msg, maxErrorMessageLen)
	})
}

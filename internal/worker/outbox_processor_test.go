package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"studio_billing/internal/conf"
	"studio_billing/internal/models"
)

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) Create(ctx context.Context, message *models.OutboxMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockOutboxRepository) ClaimAndFetchEvents(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OutboxMessage), args.Error(1)
}

func (m *mockOutboxRepository) MarkAsProcessed(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepository) IncrementRetry(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	args := m.Called(ctx, topic, body)
	return args.Error(0)
}

func (m *mockPublisher) Close() {}

func newTestProcessor(repo *mockOutboxRepository, pub *mockPublisher) *OutboxProcessor {
	cfg := &conf.WorkerConfig{}
	cfg.Outbox.IntervalSeconds = 1
	cfg.Outbox.BatchSize = 10
	return NewOutboxProcessor(repo, pub, zap.NewNop(), cfg)
}

func TestOutboxProcessor_ProcessEvents(t *testing.T) {
	t.Run("PublishesAndMarksProcessed", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		p := newTestProcessor(repo, pub)

		event := &models.OutboxMessage{
			ID:      primitive.NewObjectID(),
			Topic:   "notifications",
			Payload: `{"kind":"payment_received"}`,
		}

		repo.On("ClaimAndFetchEvents", mock.Anything, 10).Return([]*models.OutboxMessage{event}, nil).Once()
		pub.On("Publish", mock.Anything, "notifications", []byte(event.Payload)).Return(nil).Once()
		repo.On("MarkAsProcessed", mock.Anything, event.ID).Return(nil).Once()

		p.processEvents(context.Background())

		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("PublishFailureIncrementsRetry", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		p := newTestProcessor(repo, pub)

		failing := &models.OutboxMessage{ID: primitive.NewObjectID(), Topic: "notifications", Payload: "{}"}
		healthy := &models.OutboxMessage{ID: primitive.NewObjectID(), Topic: "notifications", Payload: "{}"}

		repo.On("ClaimAndFetchEvents", mock.Anything, 10).
			Return([]*models.OutboxMessage{failing, healthy}, nil).Once()
		pub.On("Publish", mock.Anything, "notifications", []byte("{}")).
			Return(errors.New("broker unavailable")).Once()
		repo.On("IncrementRetry", mock.Anything, failing.ID, "broker unavailable").Return(nil).Once()
		// The failure must not stop the rest of the batch.
		pub.On("Publish", mock.Anything, "notifications", []byte("{}")).Return(nil).Once()
		repo.On("MarkAsProcessed", mock.Anything, healthy.ID).Return(nil).Once()

		p.processEvents(context.Background())

		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkAsProcessed", mock.Anything, failing.ID)
	})

	t.Run("ClaimFailureIsLoggedOnly", func(t *testing.T) {
		repo := &mockOutboxRepository{}
		pub := &mockPublisher{}
		p := newTestProcessor(repo, pub)

		repo.On("ClaimAndFetchEvents", mock.Anything, 10).
			Return(nil, errors.New("database unavailable")).Once()

		p.processEvents(context.Background())

		repo.AssertExpectations(t)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox"
	"github.com/vardaanagro/agrofarm-backend/pkg/outbox/registry"
)

func testRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic", ReviewsTopic: "reviews-topic"})
	require.NoError(t, err)
	return reg
}

func orderCreatedRow(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	orderID := uuid.New()
	data, err := json.Marshal(map[string]any{"orderId": orderID, "userId": uuid.New(), "totalAmount": "120.50", "items": []any{}})
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), OccurredAt: time.Now(), Data: data})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	first, second := orderCreatedRow(t, 0), orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	service := newTestService(t, repo, pub, testRegistry(t), nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{first.ID}, repo.failed)
	require.Equal(t, []uuid.UUID{second.ID}, repo.published)
	require.Empty(t, repo.terminal)
}

func TestPublishSetsRoutingAttributes(t *testing.T) {
	row := orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, testRegistry(t), nil)

	var topics []string
	service.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	_, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"orders-topic"}, topics)
	require.Len(t, pub.sent, 1)
	attrs := pub.sent[0].Attributes
	require.Equal(t, string(enums.EventOrderCreated), attrs["event_type"])
	require.Equal(t, row.AggregateID.String(), attrs["aggregate_id"])
	require.NotEmpty(t, attrs["event_id"])
	_, hasRequestID := attrs["request_id"]
	require.False(t, hasRequestID)
	require.JSONEq(t, string(row.Payload), string(pub.sent[0].Data))
}

func TestPublishForwardsRequestID(t *testing.T) {
	row := orderCreatedRow(t, 0)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	envelope.RequestID = "req-checkout-1"
	payload, err := json.Marshal(envelope)
	require.NoError(t, err)
	row.Payload = payload

	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub, testRegistry(t), nil)

	_, err = service.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	require.Equal(t, "req-checkout-1", pub.sent[0].Attributes["request_id"])
}

func TestUnresolvableRowIsParked(t *testing.T) {
	row := orderCreatedRow(t, 0)
	row.AggregateType = enums.AggregateReview
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub, testRegistry(t), nil)

	processed, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{row.ID}, repo.terminal)
	require.Empty(t, repo.published)
	require.Empty(t, pub.sent)
}

func TestRowParkedAfterMaxAttempts(t *testing.T) {
	row := orderCreatedRow(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("deadline exceeded")}}}
	service := newTestService(t, repo, pub, testRegistry(t), &config.OutboxConfig{BatchSize: 1, PollIntervalMS: 100, MaxAttempts: 2})

	_, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{row.ID}, repo.terminal)
	require.Equal(t, 2, repo.terminalAttempts)
	require.Empty(t, repo.failed)
}

func TestMissingPublisherIsNonRetryable(t *testing.T) {
	row := orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	service := newTestService(t, repo, nil, testRegistry(t), nil)
	service.publisherFactory = func(string) publisher { return nil }

	_, err := service.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{row.ID}, repo.terminal)
}

func TestProcessBatchSurfacesRepositoryErrors(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	service := newTestService(t, repo, &fakePublisher{}, testRegistry(t), nil)

	processed, err := service.processBatch(context.Background())
	require.Error(t, err)
	require.False(t, processed)
}

func TestRunStopsOnCancel(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakePublisher{}, testRegistry(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, service.Run(ctx), context.Canceled)
}

func TestNextBackoffCaps(t *testing.T) {
	require.Equal(t, 200*time.Millisecond, nextBackoff(100*time.Millisecond, 100*time.Millisecond, time.Second))
	require.Equal(t, time.Second, nextBackoff(800*time.Millisecond, 100*time.Millisecond, time.Second))
	require.Equal(t, 200*time.Millisecond, nextBackoff(0, 100*time.Millisecond, time.Second))
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, resolver registryResolver, override *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	service, err := NewService(ServiceParams{
		Config:           &config.Config{Outbox: outboxCfg},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         resolver,
		PublisherFactory: func(string) publisher { return pub },
	})
	require.NoError(t, err)
	return service
}

type fakeRepo struct {
	events           []models.OutboxEvent
	fetchErr         error
	published        []uuid.UUID
	failed           []uuid.UUID
	terminal         []uuid.UUID
	terminalAttempts int
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	f.terminalAttempts = terminalAttempts
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error { return nil }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	sent    []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	mu      sync.Mutex
	pending []model.OutboxEvent
	sent    []uint64
	retried []uint64
}

func (f *fakeOutbox) ListPending(_ context.Context, n int) ([]model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.pending) {
		return append([]model.OutboxEvent(nil), f.pending[:n]...), nil
	}
	return append([]model.OutboxEvent(nil), f.pending...), nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutbox) MarkRetry(_ context.Context, id uint64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, id)
	return nil
}

type fakeLock struct {
	held     bool
	released int
}

func (l *fakeLock) Acquire(context.Context, string, string, time.Duration) (bool, error) {
	return !l.held, nil
}

func (l *fakeLock) Release(context.Context, string, string) error {
	l.released++
	return nil
}

func TestOutboxRelayer_DrainOnce(t *testing.T) {
	repo := &fakeOutbox{pending: []model.OutboxEvent{
		{ID: 1, EventType: model.EventAnnouncementPublished},
		{ID: 2, EventType: model.EventCheckInCreated},
		{ID: 3, EventType: model.EventAnnouncementPublished},
	}}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()
	metrics := pkg.NewMetrics(reg)
	sender := func(_ context.Context, ev *model.OutboxEvent) error {
		if ev.ID == 2 {
			return errors.New("broker down")
		}
		return nil
	}

	r := NewOutboxRelayer(repo, lock, sender, RelayerOptions{BatchSize: 10}, metrics, zap.NewNop())
	assert.Equal(t, 2, r.drainOnce(context.Background()))
	assert.Equal(t, []uint64{1, 3}, repo.sent)
	assert.Equal(t, []uint64{2}, repo.retried)
	assert.Equal(t, 1, lock.released)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Outbox.WithLabelValues(model.EventAnnouncementPublished, "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outbox.WithLabelValues(model.EventCheckInCreated, "retry")))
}

func TestOutboxRelayer_SkipsWithoutLock(t *testing.T) {
	repo := &fakeOutbox{pending: []model.OutboxEvent{{ID: 1}}}
	lock := &fakeLock{held: true}
	called := false
	r := NewOutboxRelayer(repo, lock, func(context.Context, *model.OutboxEvent) error {
		called = true
		return nil
	}, RelayerOptions{}, nil, zap.NewNop())

	assert.Zero(t, r.drainOnce(context.Background()))
	assert.False(t, called)
	assert.Zero(t, lock.released)
}

func TestOutboxRelayer_RunStopsOnCancel(t *testing.T) {
	repo := &fakeOutbox{pending: []model.OutboxEvent{{ID: 7}}}
	delivered := make(chan uint64, 8)
	r := NewOutboxRelayer(repo, nil, func(_ context.Context, ev *model.OutboxEvent) error {
		delivered <- ev.ID
		return nil
	}, RelayerOptions{Interval: 5 * time.Millisecond}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	select {
	case id := <-delivered:
		assert.EqualValues(t, 7, id)
	case <-time.After(time.Second):
		t.Fatal("relayer never delivered")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relayer did not stop")
	}
}

func TestFanout_StopsOnFirstError(t *testing.T) {
	var calls []string
	mk := func(name string, err error) Sender {
		return func(context.Context, *model.OutboxEvent) error {
			calls = append(calls, name)
			return err
		}
	}
	err := Fanout(mk("a", nil), mk("b", errors.New("boom")), mk("c", nil))(context.Background(), &model.OutboxEvent{})
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)
}

type fakeProducer struct {
	key     string
	value   string
	headers map[string]string
}

func (p *fakeProducer) Send(_ context.Context, key string, value []byte, headers map[string]string) error {
	p.key, p.value, p.headers = key, string(value), headers
	return nil
}

func TestKafkaSender_KeysByCommunity(t *testing.T) {
	p := &fakeProducer{}
	ev := &model.OutboxEvent{EventType: model.EventCheckInCreated, CommunityID: "c1", AggregateID: "a1", Payload: `{"kind":"daily_greeting"}`}
	require.NoError(t, KafkaSender(p)(context.Background(), ev))
	assert.Equal(t, "c1", p.key)
	assert.Equal(t, ev.Payload, p.value)
	assert.Equal(t, map[string]string{"event_type": model.EventCheckInCreated, "aggregate_id": "a1"}, p.headers)
}

type fakeMailer struct {
	to      []string
	subject string
	body    string
	err     error
}

func (m *fakeMailer) Send(to []string, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestCheckInMailSender(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin, a, b := env.user(t, "admin"), env.user(t, "a"), env.user(t, "b")
	cid := env.community(t, admin.ID, "幸福社區", true)
	env.join(t, cid, a.ID)
	env.join(t, cid, b.ID)
	env.db.users[a.ID].ReceiveDisasterCheck = true
	env.db.users[b.ID].ReceiveDailyCheck = true

	ci, err := env.checkIns.Create(ctx, admin.ID, model.KindDisasterCheck, CheckInInput{CommunityID: cid, Message: "地震後請回報平安"})
	require.NoError(t, err)
	require.Len(t, env.db.outbox, 1)
	ev := env.db.outbox[0]
	assert.Equal(t, ci.ID, ev.AggregateID)

	m := &fakeMailer{}
	send := CheckInMailSender(memUsers{env.db}, m, zap.NewNop())
	require.NoError(t, send(ctx, &ev))
	assert.Equal(t, []string{"a@example.com"}, m.to)
	assert.Equal(t, "【幸福社區】防災安全回報", m.subject)
	assert.Contains(t, m.body, "地震後請回報平安")

	m.err = errors.New("smtp down")
	assert.Error(t, send(ctx, &ev))

	// 其他事件与坏数据都不投递
	m2 := &fakeMailer{}
	send = CheckInMailSender(memUsers{env.db}, m2, zap.NewNop())
	require.NoError(t, send(ctx, &model.OutboxEvent{EventType: model.EventAnnouncementPublished, CommunityID: cid}))
	require.NoError(t, send(ctx, &model.OutboxEvent{EventType: model.EventCheckInCreated, CommunityID: cid, Payload: "{"}))
	assert.Nil(t, m2.to)
}

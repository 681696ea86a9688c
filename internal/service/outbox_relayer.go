package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
)

const relayLockName = "outbox:relay"

// Sender 投递一条 outbox 事件，返回错误则该事件稍后重试
type Sender func(ctx context.Context, ev *model.OutboxEvent) error

// Fanout 依次交给多个 sender，任一失败整条事件重试，已成功的 sender 会再收到一次（至少一次投递）
// 下游需按 outbox id / aggregate_id 去重；不可去重的 sender 应排在最后
func Fanout(senders ...Sender) Sender {
	return func(ctx context.Context, ev *model.OutboxEvent) error {
		for _, s := range senders {
			if err := s(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}
}

type RelayerOptions struct {
	BatchSize int
	Interval  time.Duration
	MaxRetry  int
}

// OutboxRelayer 定时把 outbox 表中待投递事件交给 sender
// 多副本部署时用 Locker 租约保证同一时刻只有一个实例在投递
type OutboxRelayer struct {
	repo    OutboxStore
	lock    Locker
	sender  Sender
	opts    RelayerOptions
	metrics *pkg.Metrics
	log     *zap.Logger
	token   string
}

func NewOutboxRelayer(repo OutboxStore, lock Locker, sender Sender, opts RelayerOptions, metrics *pkg.Metrics, log *zap.Logger) *OutboxRelayer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 5
	}
	return &OutboxRelayer{
		repo:    repo,
		lock:    lock,
		sender:  sender,
		opts:    opts,
		metrics: metrics,
		log:     log,
		token:   pkg.NewID(),
	}
}

// Run outbox 启动器，ctx 取消后返回
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 取一批事件逐条投递，返回成功条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	if r.lock != nil {
		ok, err := r.lock.Acquire(ctx, relayLockName, r.token, 5*r.opts.Interval+10*time.Second)
		if err != nil {
			r.log.Warn("outbox lock failed", zap.Error(err))
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := r.lock.Release(context.WithoutCancel(ctx), relayLockName, r.token); err != nil {
				r.log.Warn("outbox unlock failed", zap.Error(err))
			}
		}()
	}

	rows, err := r.repo.ListPending(ctx, r.opts.BatchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ev := rows[i]
		if err := r.sender(ctx, &ev); err != nil {
			r.log.Warn("outbox send failed",
				zap.Uint64("id", ev.ID),
				zap.String("event_type", ev.EventType),
				zap.Int("retry", ev.Retry),
				zap.Error(err))
			r.count(ev.EventType, "retry")
			if err := r.repo.MarkRetry(ctx, ev.ID, r.opts.MaxRetry); err != nil {
				r.log.Error("outbox mark retry failed", zap.Uint64("id", ev.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ev.ID); err != nil {
			r.log.Error("outbox mark sent failed", zap.Uint64("id", ev.ID), zap.Error(err))
			continue
		}
		r.count(ev.EventType, "sent")
		sent++
	}
	return sent
}

func (r *OutboxRelayer) count(eventType, result string) {
	if r.metrics != nil {
		r.metrics.Outbox.WithLabelValues(eventType, result).Inc()
	}
}

// EventProducer 由 pkg.KafkaProducer 实现
type EventProducer interface {
	Send(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaSender 以社区 ID 为 key 发布，保证同社区事件有序
func KafkaSender(p EventProducer) Sender {
	return func(ctx context.Context, ev *model.OutboxEvent) error {
		return p.Send(ctx, ev.CommunityID, []byte(ev.Payload), map[string]string{
			"event_type":   ev.EventType,
			"aggregate_id": ev.AggregateID,
		})
	}
}

// LogSender 未配置 Kafka 时使用，仅记录日志
func LogSender(log *zap.Logger) Sender {
	return func(ctx context.Context, ev *model.OutboxEvent) error {
		log.Info("outbox event",
			zap.String("event_type", ev.EventType),
			zap.String("community_id", ev.CommunityID),
			zap.String("aggregate_id", ev.AggregateID))
		return nil
	}
}

// MailSender 由 pkg.Mailer 实现
type MailSender interface {
	Send(to []string, subject, htmlBody string) error
}

// CheckInMailSender 新的关怀/防灾回报以邮件通知订阅的社区成员，其他事件忽略
func CheckInMailSender(users UserStore, mailer MailSender, log *zap.Logger) Sender {
	return func(ctx context.Context, ev *model.OutboxEvent) error {
		if ev.EventType != model.EventCheckInCreated {
			return nil
		}
		var p struct {
			Kind          string `json:"kind"`
			Message       string `json:"message"`
			CommunityName string `json:"community_name"`
		}
		if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
			// 坏数据重试也无用，直接丢弃
			log.Error("checkin payload invalid", zap.Uint64("id", ev.ID), zap.Error(err))
			return nil
		}
		list, err := users.ListNotifiable(ctx, ev.CommunityID, p.Kind)
		if err != nil {
			return fmt.Errorf("list notifiable: %w", err)
		}
		to := make([]string, 0, len(list))
		for _, u := range list {
			if u.Email != nil && *u.Email != "" {
				to = append(to, *u.Email)
			}
		}
		if len(to) == 0 {
			return nil
		}
		title := kindLabel(p.Kind)
		if err := mailer.Send(to, fmt.Sprintf("【%s】%s", p.CommunityName, title),
			pkg.CheckInMailHTML(p.CommunityName, title, p.Message)); err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		log.Info("checkin mail sent", zap.String("community_id", ev.CommunityID), zap.Int("recipients", len(to)))
		return nil
	}
}

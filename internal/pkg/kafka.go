package pkg

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string // 默认 hoodlink
}

// KafkaProducer 发布社区事件；同一社区的事件按 key 落到同一分区，保证社区内有序
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	if cfg.ClientID == "" {
		cfg.ClientID = "hoodlink"
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
	}
	return &KafkaProducer{writer: w}
}

// Send 同步写入，返回错误时由 outbox 重试
func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if err := p.writer.WriteMessages(ctx, eventMessage(key, value, headers)); err != nil {
		return fmt.Errorf("kafka write %s: %w", p.writer.Topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// eventMessage header 按 key 排序，便于消费端比对
func eventMessage(key string, value []byte, headers map[string]string) kafka.Message {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msg := kafka.Message{Key: []byte(key), Value: value}
	for _, k := range keys {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return msg
}

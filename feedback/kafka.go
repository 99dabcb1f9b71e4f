package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/rushteam/persona/core"
)

// KafkaCollector Kafka 采集器（生产环境推荐）。
// 事件先进内存缓冲，按批量大小或刷新间隔异步发送；
// 以 UserID 作为 record key，保证同一用户的事件在分区内有序。
type KafkaCollector struct {
	client        *kgo.Client
	topic         string
	batchSize     int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []*core.InteractionEvent
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// KafkaCollectorConfig Kafka 采集器配置。
type KafkaCollectorConfig struct {
	Brokers []string // Kafka Broker 地址列表
	Topic   string   // Kafka Topic

	BatchSize     int           // 批量大小（建议 100-1000）
	FlushInterval time.Duration // 刷新间隔（建议 1-5 秒）

	ClientID string // 客户端 ID
}

// NewKafkaCollector 创建 Kafka 采集器。
func NewKafkaCollector(config KafkaCollectorConfig) (*KafkaCollector, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 1 * time.Second
	}
	if config.ClientID == "" {
		config.ClientID = "persona-feedback-collector"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.RequiredAcks(kgo.LeaderAck()),
	)
	if err != nil {
		return nil, err
	}

	c := &KafkaCollector{
		client:        client,
		topic:         config.Topic,
		batchSize:     config.BatchSize,
		flushInterval: config.FlushInterval,
		buffer:        make([]*core.InteractionEvent, 0, config.BatchSize),
		stopCh:        make(chan struct{}),
	}

	c.wg.Add(1)
	go c.flushLoop()

	return c, nil
}

// Record 异步记录一条交互事件（不阻塞）。
func (c *KafkaCollector) Record(_ context.Context, event *core.InteractionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.buffer = append(c.buffer, event)

	// 达到批量大小，触发发送
	if len(c.buffer) >= c.batchSize {
		go c.flush()
	}
	return nil
}

// flushLoop 定时刷新循环。
func (c *KafkaCollector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			return
		}
	}
}

// flush 刷新缓冲到 Kafka。
func (c *KafkaCollector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := make([]*core.InteractionEvent, len(c.buffer))
	copy(events, c.buffer)
	c.buffer = c.buffer[:0]
	c.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		record := &kgo.Record{
			Topic: c.topic,
			Key:   []byte(event.UserID),
			Value: data,
		}
		// 异步发送；发送失败属于 best-effort 路径，由监控侧发现
		c.client.Produce(context.Background(), record, nil)
	}
}

// Close 优雅关闭（等待缓冲数据发送完成）。
func (c *KafkaCollector) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		c.flush()
		c.wg.Wait()
		c.client.Close()
	})
	return nil
}

var _ Collector = (*KafkaCollector)(nil)

package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Параметры соединения с брокером.
const (
	// connectionName показывается в management-консоли RabbitMQ.
	connectionName = "leadflow"

	// dialHeartbeat — интервал heartbeat: разрыв обнаруживается
	// быстрее, чем TCP keepalive.
	dialHeartbeat = 10 * time.Second

	// reconnectInitialWait и reconnectMaxWait задают экспоненциальную
	// задержку между попытками переподключения.
	reconnectInitialWait = time.Second
	reconnectMaxWait     = 30 * time.Second
)

// Connection — AMQP-соединение с автоматическим восстановлением.
//
// Разрыв соединения не фатален для пайплайна: publisher при
// недоступном канале возвращает ошибку (run уже сохранён в БД
// и останется pending), consumer пересоздаёт подписку по сигналу
// ReconnectNotify.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed   bool
	closedCh chan struct{}

	reconnectCh chan struct{}
}

// NewConnection подключается к RabbitMQ и запускает наблюдение
// за соединением.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	c := &Connection{
		url:         url,
		logger:      logger,
		closedCh:    make(chan struct{}),
		reconnectCh: make(chan struct{}, 1),
	}

	if err := c.dial(); err != nil {
		return nil, err
	}

	go c.supervise()

	return c, nil
}

// dial устанавливает соединение и открывает канал.
func (c *Connection) dial() error {
	conn, err := amqp.DialConfig(c.url, amqp.Config{
		Heartbeat: dialHeartbeat,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": connectionName,
		},
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")

	return nil
}

// supervise следит за соединением и восстанавливает его при разрыве.
func (c *Connection) supervise() {
	for {
		c.mu.RLock()
		closed, conn := c.closed, c.conn
		c.mu.RUnlock()

		if closed {
			return
		}
		if conn == nil {
			time.Sleep(reconnectInitialWait)
			continue
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case err := <-notifyClose:
			if err != nil {
				c.logger.Warn("connection lost", "error", err)
			}
			c.redial()
		}
	}
}

// redial повторяет подключение с экспоненциальной задержкой,
// затем сигналит подписчикам о восстановлении.
func (c *Connection) redial() {
	wait := reconnectInitialWait

	for {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		c.logger.Info("reconnecting to RabbitMQ", "wait", wait)
		time.Sleep(wait)

		if err := c.dial(); err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			wait = min(wait*2, reconnectMaxWait)
			continue
		}

		select {
		case c.reconnectCh <- struct{}{}:
		default:
		}

		return
	}
}

// Channel возвращает текущий AMQP канал.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// ReconnectNotify возвращает канал уведомлений о восстановлении
// соединения.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	return c.reconnectCh
}

// Close закрывает соединение и останавливает наблюдение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.closedCh)

	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close connection: %w", err)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	c.logger.Info("connection closed")
	return nil
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// WithChannel выполняет fn с текущим каналом.
// Отменённый контекст прерывает вызов до обращения к брокеру.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	return fn(ch)
}

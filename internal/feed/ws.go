package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"intraday-sim-lab/internal/domain"
)

// WSConfig configures the live tick source.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing frames.
	WriteTimeout time.Duration
	// Buffer is the tick channel capacity absorbing bursts.
	Buffer int
}

// DefaultWSConfig returns default websocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            10000,
	}
}

// wsTick is the wire form of one tick message.
type wsTick struct {
	Symbol string  `json:"symbol"`
	Time   string  `json:"time"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
	Flag   string  `json:"flag"`
}

// WSSource streams live ticks from a websocket feed, reconnecting with
// exponential backoff on read errors.
type WSSource struct {
	endpoint string
	config   WSConfig
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	errMu   sync.Mutex
	lastErr error

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSSource creates a live tick source and connects to the endpoint.
func NewWSSource(ctx context.Context, endpoint string, config *WSConfig, logger *zap.Logger) (*WSSource, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &WSSource{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

func (s *WSSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Stream starts the read loop and returns the tick channel. The
// channel closes when the source is closed or the context ends.
func (s *WSSource) Stream(ctx context.Context) (<-chan *domain.Tick, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("source closed")
	}

	out := make(chan *domain.Tick, s.config.Buffer)
	s.wg.Add(1)
	go s.readLoop(ctx, out)
	return out, nil
}

// Err returns the last fatal stream error, if any.
func (s *WSSource) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// Close shuts the source down and closes the connection.
func (s *WSSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *WSSource) readLoop(ctx context.Context, out chan<- *domain.Tick) {
	defer s.wg.Done()
	defer close(out)

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		if ctx.Err() != nil {
			return
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.waitOrDone(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = s.nextDelay(reconnectDelay)
			s.reconnect(ctx)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			s.logger.Warn("tick feed read error", zap.Error(err))
			s.dropConn()
			if !s.waitOrDone(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = s.nextDelay(reconnectDelay)
			s.reconnect(ctx)
			continue
		}
		reconnectDelay = s.config.ReconnectDelay

		tick, err := decodeTick(message)
		if err != nil {
			s.logger.Warn("malformed tick message", zap.Error(err))
			continue
		}
		if tick.Flag == domain.TickFlagOpen {
			continue
		}

		select {
		case out <- tick:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

func (s *WSSource) dropConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

func (s *WSSource) reconnect(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.connect(dialCtx); err != nil {
		s.logger.Warn("tick feed reconnect failed", zap.Error(err))
		s.setErr(err)
		return
	}
	s.logger.Info("tick feed reconnected", zap.String("endpoint", s.endpoint))
	s.setErr(nil)
}

func (s *WSSource) waitOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

func (s *WSSource) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > s.config.MaxReconnectDelay {
		d = s.config.MaxReconnectDelay
	}
	return d
}

func (s *WSSource) setErr(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
}

func (s *WSSource) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

func decodeTick(message []byte) (*domain.Tick, error) {
	var wire wsTick
	if err := json.Unmarshal(message, &wire); err != nil {
		return nil, fmt.Errorf("decode tick: %w", err)
	}
	if wire.Symbol == "" {
		return nil, fmt.Errorf("tick missing symbol")
	}
	ts, err := parseTickTime(wire.Time)
	if err != nil {
		return nil, err
	}
	return &domain.Tick{
		Symbol: wire.Symbol,
		Time:   ts,
		Price:  wire.Price,
		Volume: wire.Volume,
		Flag:   domain.TickFlag(wire.Flag),
	}, nil
}

var _ Source = (*WSSource)(nil)

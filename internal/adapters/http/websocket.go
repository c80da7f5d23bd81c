package http

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geoportfolio/internal/adapters/nats"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsRequest is a client control message, for example
// {"action":"subscribe","portfolio":3,"events":["created","deleted"]}.
type wsRequest struct {
	Action    string   `json:"action"`    // subscribe or unsubscribe
	Portfolio int64    `json:"portfolio"` // 0 means every portfolio
	Events    []string `json:"events"`    // empty means every action
}

// wsFilter decides which events a connection receives.
type wsFilter struct {
	mu        sync.RWMutex
	active    bool
	portfolio string
	actions   map[domain.PropertyAction]bool
}

func (f *wsFilter) subscribe(portfolio int64, actions []domain.PropertyAction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = true
	f.portfolio = ""
	if portfolio > 0 {
		f.portfolio = strconv.FormatInt(portfolio, 10)
	}
	f.actions = nil
	if len(actions) > 0 {
		f.actions = make(map[domain.PropertyAction]bool, len(actions))
		for _, a := range actions {
			f.actions[a] = true
		}
	}
}

func (f *wsFilter) unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
}

// allows matches on the subject suffix and the portfolio header, so events
// are relayed without decoding their payload.
func (f *wsFilter) allows(subject, portfolio string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.active {
		return false
	}
	if f.portfolio != "" && f.portfolio != portfolio {
		return false
	}
	if f.actions != nil {
		action := domain.PropertyAction(strings.TrimPrefix(subject, natsadapter.SubjectPrefix))
		return f.actions[action]
	}
	return true
}

func parseActions(names []string) ([]domain.PropertyAction, error) {
	out := make([]domain.PropertyAction, 0, len(names))
	for _, n := range names {
		a := domain.PropertyAction(n)
		switch a {
		case domain.PropertyCreated, domain.PropertyUpdated, domain.PropertyDeleted:
			out = append(out, a)
		default:
			return nil, fmt.Errorf("unknown event: %s", n)
		}
	}
	return out, nil
}

// wsSession serializes writes to one connection; the NATS callback, the
// keep-alive loop and the read loop all write.
type wsSession struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	filter wsFilter
	log    *slog.Logger
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("ws encode failed", "error", err)
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

func (s *wsSession) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *wsSession) handle(raw []byte) {
	var req wsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.send(fiber.Map{"error": "invalid JSON"})
		return
	}

	switch req.Action {
	case "subscribe":
		if req.Portfolio < 0 {
			s.send(fiber.Map{"error": "portfolio must be a positive id"})
			return
		}
		actions, err := parseActions(req.Events)
		if err != nil {
			s.send(fiber.Map{"error": err.Error()})
			return
		}
		s.filter.subscribe(req.Portfolio, actions)
		s.send(fiber.Map{"status": "subscribed", "portfolio": req.Portfolio, "events": req.Events})
	case "unsubscribe":
		s.filter.unsubscribe()
		s.send(fiber.Map{"status": "unsubscribed"})
	default:
		s.send(fiber.Map{"error": "unknown action: " + req.Action})
	}
}

// WebSocketHandler relays property change events from NATS to map clients.
// A new connection receives every event until it narrows the subscription.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		s := &wsSession{
			conn: c,
			log:  slog.Default().With("remote", c.RemoteAddr().String()),
		}
		if nc == nil {
			s.send(fiber.Map{"error": "live updates unavailable"})
			return
		}
		s.filter.subscribe(0, nil)

		sub, err := nc.Subscribe(natsadapter.SubjectAll, func(msg *nats.Msg) {
			if s.filter.allows(msg.Subject, msg.Header.Get(natsadapter.HeaderPortfolio)) {
				_ = s.write(websocket.TextMessage, msg.Data)
			}
		})
		if err != nil {
			s.log.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		s.log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go s.keepAlive(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			s.handle(raw)
		}
		s.log.Info("ws client disconnected")
	}
}

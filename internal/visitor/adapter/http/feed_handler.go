package http

import (
	"context"
	"time"

	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/visitor/domain/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const feedWriteWait = 10 * time.Second

// FeedMessage is one entry of the live visitor feed
type FeedMessage struct {
	Type      string               `json:"type"`
	Visitor   *model.VisitorRecord `json:"visitor"`
	Timestamp time.Time            `json:"timestamp"`
}

var feedEvents = []string{
	eventbus.EventTypeVisitorReported,
	eventbus.EventTypeVisitorPageView,
	eventbus.EventTypeVisitorContacted,
}

// FeedHandler streams visitor activity to admins over a websocket
type FeedHandler struct {
	bus        eventbus.EventBusInterface
	log        logger.Logger
	bufferSize int
	pingPeriod time.Duration
}

// NewFeedHandler creates a new live feed handler
func NewFeedHandler(bus eventbus.EventBusInterface, log logger.Logger, bufferSize int, pingPeriod time.Duration) *FeedHandler {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	return &FeedHandler{bus: bus, log: log.WithComponent("visitor-feed"), bufferSize: bufferSize, pingPeriod: pingPeriod}
}

// RegisterRoutes registers GET /feed on an already protected router
func (h *FeedHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/feed", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/feed", websocket.New(h.handleConnection))
}

// subscribe registers bus handlers that push into a buffered channel. Slow
// clients drop messages instead of blocking publishers.
func (h *FeedHandler) subscribe(subscriberID string) (<-chan FeedMessage, func()) {
	ch := make(chan FeedMessage, h.bufferSize)
	unsubs := make([]func(), 0, len(feedEvents))

	for _, eventType := range feedEvents {
		unsubs = append(unsubs, h.bus.Subscribe(eventType, func(ctx context.Context, e eventbus.Event) error {
			record, ok := e.Data().(*model.VisitorRecord)
			if !ok {
				return nil
			}
			select {
			case ch <- FeedMessage{Type: e.Type(), Visitor: record, Timestamp: e.Timestamp()}:
			default:
				h.log.Debugf("Feed subscriber %s is lagging, dropped %s", subscriberID, e.Type())
			}
			return nil
		}))
	}

	return ch, func() {
		for _, unsubscribe := range unsubs {
			unsubscribe()
		}
	}
}

func (h *FeedHandler) handleConnection(conn *websocket.Conn) {
	subscriberID := uuid.NewString()
	events, unsubscribe := h.subscribe(subscriberID)
	defer unsubscribe()

	h.log.Infof("Visitor feed connected: %s", subscriberID)
	defer h.log.Infof("Visitor feed closed: %s", subscriberID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// only control frames are expected; reading detects disconnects
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warnf("Visitor feed read error: %v", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(h.pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warnf("Visitor feed write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}

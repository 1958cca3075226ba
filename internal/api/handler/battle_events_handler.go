package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"code_arena/internal/app/service"
	"code_arena/internal/common"
)

const (
	eventWriteWait = 10 * time.Second
	eventPongWait  = 60 * time.Second
	eventPingEvery = (eventPongWait * 9) / 10
)

// BattleEventsHandler bridges a battle's redis event channel onto a websocket.
// Every subscriber of a battle sees the same stream: submission progress,
// verdicts and pipeline errors, in publish order.
type BattleEventsHandler struct {
	battleService *service.BattleService
	rdb           *redis.Client
	upgrader      websocket.Upgrader
}

func NewBattleEventsHandler(battleService *service.BattleService, rdb *redis.Client) *BattleEventsHandler {
	return &BattleEventsHandler{
		battleService: battleService,
		rdb:           rdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *BattleEventsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{battleID}/events", h.stream)
}

func (h *BattleEventsHandler) stream(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	if _, err := h.battleService.GetBattle(r.Context(), battleID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed for battle %s: %v", battleID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, service.BattleEventsChannel(battleID))
	defer sub.Close()

	// Read side exists only to notice the peer going away and to answer pings.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(eventPongWait))
		return nil
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := sub.Channel()
	ping := time.NewTicker(eventPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

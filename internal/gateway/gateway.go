package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/internal/repository"
	"github.com/d60-Lab/booking-platform/pkg/jwtauth"
	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// Channel 跨实例广播通道
const Channel = "notifications:events"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// broadcastMessage 跨实例消息，origin 相同的实例丢弃（本地已投递）
type broadcastMessage struct {
	OriginID     string              `json:"originId"`
	Notification *model.Notification `json:"notification"`
}

// Gateway 实时推送网关：本地 Hub + Redis pub/sub 跨实例扇出
type Gateway struct {
	hub      *Hub
	userRepo repository.UserRepository
	tokens   *jwtauth.Manager
	rdb      *redis.Client
	originID string

	cancel context.CancelFunc
	done   chan struct{}
}

func New(hub *Hub, userRepo repository.UserRepository, tokens *jwtauth.Manager, rdb *redis.Client) *Gateway {
	return &Gateway{
		hub:      hub,
		userRepo: userRepo,
		tokens:   tokens,
		rdb:      rdb,
		originID: uuid.New().String(),
		done:     make(chan struct{}),
	}
}

func (g *Gateway) Hub() *Hub { return g.hub }

// Start 启动跨实例订阅循环
func (g *Gateway) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	sub := g.rdb.Subscribe(ctx, Channel)
	go g.subscribeLoop(ctx, sub)
}

// Stop 停止订阅
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
		<-g.done
	}
}

func (g *Gateway) subscribeLoop(ctx context.Context, sub *redis.PubSub) {
	defer close(g.done)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bm broadcastMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				logger.Warn("malformed broadcast message", zap.Error(err))
				continue
			}
			// 自源过滤：发布实例本地已经投递过
			if bm.OriginID == g.originID || bm.Notification == nil {
				continue
			}
			g.hub.Emit(bm.Notification)
		}
	}
}

// Emit 本地投递并广播到其它实例。
// 同一通知重复 Emit 只会造成无害的重复推送，不会产生新数据。
func (g *Gateway) Emit(ctx context.Context, n *model.Notification) error {
	g.hub.Emit(n)

	payload, err := json.Marshal(broadcastMessage{OriginID: g.originID, Notification: n})
	if err != nil {
		return err
	}
	if err := g.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return err
	}
	return nil
}

// HandleWS 处理 /ws/notifications 握手。
// 凭证缺失/无效/用户不存在都回 auth_error 帧后关闭，客户端需携带有效凭证重连。
func (g *Gateway) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	token := extractToken(c.Request)
	if token == "" {
		g.rejectConn(conn, "Unauthorized")
		return
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		g.rejectConn(conn, "Unauthorized")
		return
	}

	user, err := g.userRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.rejectConn(conn, "Unauthorized")
		} else {
			g.rejectConn(conn, "Database unavailable")
		}
		return
	}

	client := NewClient(user.ID, user.Role, 64)
	g.hub.Register(client)
	g.sendFrame(conn, Frame{Event: "connected", Data: gin.H{"userId": user.ID, "role": user.Role}})

	go g.writePump(conn, client)
	go g.readPump(conn, client)
}

// rejectConn 认证失败：显式 auth_error 帧后立即关闭，不给宽限期
func (g *Gateway) rejectConn(conn *websocket.Conn, message string) {
	g.sendFrame(conn, Frame{Event: "auth_error", Data: gin.H{"message": message}})
	_ = conn.Close()
}

func (g *Gateway) sendFrame(conn *websocket.Conn, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (g *Gateway) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只用于感知断连，入站消息全部忽略
func (g *Gateway) readPump(conn *websocket.Conn, client *Client) {
	defer g.hub.Unregister(client)
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// extractToken 优先 Authorization 头，缺失时回落到 ?token= 查询参数
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

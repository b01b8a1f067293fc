package gateway

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// Frame 下行消息帧
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client 一条已认证的连接；send 由 writePump 消费
type Client struct {
	userID string
	role   model.UserRole
	send   chan []byte

	closeOnce sync.Once
}

func NewClient(userID string, role model.UserRole, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{userID: userID, role: role, send: make(chan []byte, buffer)}
}

func (c *Client) UserID() string { return c.userID }

// Send 返回只读下行通道
func (c *Client) Send() <-chan []byte { return c.send }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub 本实例的连接注册表：按用户索引 + 管理员全集
type Hub struct {
	mu      sync.RWMutex
	byUser  map[string]map[*Client]struct{}
	admins  map[*Client]struct{}
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byUser:  make(map[string]map[*Client]struct{}),
		admins:  make(map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Register 连接认证通过后登记
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	set := h.byUser[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.byUser[c.userID] = set
	}
	set[c] = struct{}{}
	if c.role == model.RoleAdmin {
		h.admins[c] = struct{}{}
	}
}

// Unregister 断连清理；对未登记（认证失败）的连接调用也安全。
// send 通道必须在持锁时关闭，和 Emit 的持锁发送互斥，否则并发断连会
// 撞上 send-on-closed-channel。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		if set := h.byUser[c.userID]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.byUser, c.userID)
			}
		}
		delete(h.admins, c)
	}
	c.close()
}

// Emit 本地扇出：归属用户的全部连接 ∪ 全部管理员连接
func (h *Hub) Emit(n *model.Notification) {
	data, err := json.Marshal(Frame{Event: "notification:new", Data: n})
	if err != nil {
		logger.Error("marshal notification frame failed", zap.Error(err))
		return
	}

	// 发送全程持读锁：Unregister 在写锁内关通道，二者不会交错
	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := make(map[*Client]struct{})
	for c := range h.byUser[n.UserID] {
		targets[c] = struct{}{}
	}
	for c := range h.admins {
		targets[c] = struct{}{}
	}

	for c := range targets {
		select {
		case c.send <- data:
		default:
			// 慢消费者丢帧；断线客户端靠列表接口对账
			logger.Warn("client send buffer full, dropping frame",
				zap.String("user_id", c.userID))
		}
	}
}

// ConnCount 当前连接数（运维观测用）
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

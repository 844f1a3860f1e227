package controllers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/posterdeck/posterdeck/internal/pkg/middleware"
	"github.com/posterdeck/posterdeck/internal/pkg/notify"
)

const socketUserKey = "SOCKET_USER_ID"

// SocketUpgrade gates the websocket endpoint and stashes the optional
// authenticated user before the protocol upgrade, since Locals set by
// fiber middleware are not visible inside the websocket handler chain.
func SocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if user := middleware.CurrentUser(c); user != nil {
		c.Locals(socketUserKey, user.ID)
	}
	return c.Next()
}

// HandleSocket registers the connection with the notify registry, sends
// the client its connection ID and then blocks reading until the peer
// goes away. Inbound frames are ignored; the socket is push only.
var HandleSocket = websocket.New(func(conn *websocket.Conn) {
	var userID *uint
	if id, ok := conn.Locals(socketUserKey).(uint); ok {
		userID = &id
	}

	registry := notify.Default()
	connID := registry.Register(userID, conn)
	defer registry.Unregister(connID)

	if err := conn.WriteJSON(fiber.Map{"event": "connected", "payload": fiber.Map{"connId": connID}}); err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
})

package server

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"mangowheel/internal/fund"
	"mangowheel/internal/game"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")

	api.Get("/round/state", s.getRoundStateHandler)
	api.Post("/round/bet", s.placeBetHandler)
	api.Get("/user/:username/balance", s.getBalanceHandler)
	api.Post("/user/:username/balance", s.setBalanceHandler)

	admin := api.Group("/admin")
	admin.Get("/fund", s.getFundHandler)
	admin.Post("/fund/deposit", s.fundDepositHandler)
	admin.Post("/fund/withdraw", s.fundWithdrawHandler)

	s.App.Get("/ws", websocket.New(s.roundWebSocketHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"database": s.db.Health(),
		"cache":    s.cache.Health(),
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.ClientCount(),
		},
	}
	return c.JSON(health)
}

// getRoundStateHandler returns the latest published round state.
func (s *FiberServer) getRoundStateHandler(c *fiber.Ctx) error {
	state := s.manager.GetState()
	if state == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "No round state published yet",
		})
	}
	return c.JSON(state)
}

// placeBetHandler routes a bet into the current round.
func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req game.PlaceBetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Currency == "" {
		req.Currency = game.CurrencyReal
	}

	resp := s.manager.PlaceBet(c.Context(), req)
	if !resp.Success {
		return c.Status(400).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *FiberServer) getBalanceHandler(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	balance, err := s.wallet.Balance(c.Context(), username)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{
			"error": "Wallet unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"username": username,
		"balance":  balance,
	})
}

// setBalanceHandler overwrites one balance field (testing/admin).
func (s *FiberServer) setBalanceHandler(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	var body struct {
		Mode    string `json:"mode"`
		Balance int64  `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if body.Mode == "" {
		body.Mode = "real"
	}

	if err := s.wallet.SetBalance(c.Context(), username, body.Mode, body.Balance); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"username": username,
		"mode":     body.Mode,
		"balance":  body.Balance,
		"message":  "Balance updated successfully",
	})
}

func (s *FiberServer) getFundHandler(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	txs, err := s.fund.Transactions(c.Context(), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load transactions",
		})
	}

	return c.JSON(fiber.Map{
		"balance_mangos": s.fund.CachedBalance(),
		"balance_usd":    s.fund.BalanceUSD(),
		"max_bet_real":   s.fund.MaxBetReal(),
		"transactions":   txs,
	})
}

func (s *FiberServer) fundDepositHandler(c *fiber.Ctx) error {
	return s.fundUpdateHandler(c, fund.TxDeposit, 1)
}

func (s *FiberServer) fundWithdrawHandler(c *fiber.Ctx) error {
	return s.fundUpdateHandler(c, fund.TxWithdraw, -1)
}

func (s *FiberServer) fundUpdateHandler(c *fiber.Ctx, txType string, sign int64) error {
	var body struct {
		Amount   int64  `json:"amount"`
		Username string `json:"username"`
	}
	if err := c.BodyParser(&body); err != nil || body.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Amount must be positive",
		})
	}

	balance, err := s.fund.Update(sign*body.Amount, txType, body.Username, 0)
	if err != nil {
		return c.Status(409).JSON(fiber.Map{
			"error":          err.Error(),
			"balance_mangos": balance,
		})
	}

	return c.JSON(fiber.Map{
		"balance_mangos": balance,
		"balance_usd":    s.fund.BalanceUSD(),
	})
}

// roundWebSocketHandler streams round state and accepts bets in-band.
func (s *FiberServer) roundWebSocketHandler(conn *websocket.Conn) {
	username := conn.Query("username", "anonymous")

	log.Printf("[WS] New connection from user: %s", username)

	client := s.hub.RegisterClient(conn, username)
	client.SendState(s.manager.GetState())

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] Read error for user %s: %v", username, err)
			s.hub.UnregisterClient(conn)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg struct {
			Type         string            `json:"type"`
			Amount       int64             `json:"amount"`
			BetType      game.BetType      `json:"bet_type"`
			TargetNumber int               `json:"target_number"`
			Currency     game.CurrencyMode `json:"currency"`
		}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}

		switch clientMsg.Type {
		case "place_bet":
			currency := clientMsg.Currency
			if currency == "" {
				currency = game.CurrencyReal
			}
			resp := s.manager.PlaceBet(context.Background(), game.PlaceBetRequest{
				Username:     username,
				Type:         clientMsg.BetType,
				Amount:       clientMsg.Amount,
				TargetNumber: clientMsg.TargetNumber,
				Currency:     currency,
			})
			respJSON, _ := json.Marshal(resp)
			conn.WriteMessage(websocket.TextMessage, respJSON)

		case "ping":
			pongJSON, _ := json.Marshal(map[string]string{"type": "pong"})
			conn.WriteMessage(websocket.TextMessage, pongJSON)
		}
	}
}

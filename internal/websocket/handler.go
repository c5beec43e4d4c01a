package websocket

import (
	"context"
	"encoding/json"
	"log"

	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeQueryStream handles one websocket session. Each inbound text frame
// is a QueryRequest; the reply is a stream of StreamEvent frames ending
// with the terminal sources event, mirroring the SSE transport.
func ServeQueryStream(queryService service.IQueryService) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return // client went away
			}

			var req dto.QueryRequest
			if err := json.Unmarshal(raw, &req); err != nil || req.Query == "" {
				if writeErr := c.WriteJSON(map[string]string{"error": "invalid query payload"}); writeErr != nil {
					return
				}
				continue
			}

			ctx, cancel := context.WithCancel(context.Background())
			err = queryService.AskStream(ctx, &req, func(event dto.StreamEvent) error {
				return c.WriteJSON(event)
			})
			cancel()

			if err != nil {
				log.Printf("[WARN] Websocket stream aborted: %v", err)
				return
			}
		}
	}
}

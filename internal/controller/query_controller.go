package controller

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"

	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/pkg/serverutils"
	"audit-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService     service.IQueryService
	ingestionService service.IIngestionService
}

func NewQueryController(
	queryService service.IQueryService,
	ingestionService service.IIngestionService,
) IQueryController {
	return &queryController{
		queryService:     queryService,
		ingestionService: ingestionService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query/v1")
	h.Post("", c.Ask)
	h.Post("stream", c.AskStream)
	h.Post("documents", c.Ingest)
	h.Get("health", c.Health)
}

func (c *queryController) Ask(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

// AskStream delivers the answer as server-sent events: zero or more token
// frames followed by exactly one terminal sources frame.
func (c *queryController) AskStream(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The request ctx doubles as the cancellation signal: fasthttp cancels
	// it when the client disconnects mid-stream.
	reqCtx := ctx.Context()
	request := req

	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		err := c.queryService.AskStream(reqCtx, &request, func(event dto.StreamEvent) error {
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			log.Printf("[WARN] Stream aborted: %v", err)
		}
	}))

	return nil
}

func (c *queryController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestionService.Ingest(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document queued for embedding", res))
}

func (c *queryController) Health(ctx *fiber.Ctx) error {
	res, err := c.queryService.Health(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

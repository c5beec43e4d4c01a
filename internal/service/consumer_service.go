package service

import (
	"context"
	"encoding/json"
	"log"

	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/model"
	"audit-ai-be/internal/repository"
	"audit-ai-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pgvector/pgvector-go"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	repo              repository.DocumentEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo repository.DocumentEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		repo:              repo,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal chunk event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Embedding chunk %s page %d", payload.SourceFile, payload.Page)

	embeddingRes, err := cs.embeddingProvider.Generate(ctx, payload.Content, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Embedding failed for %s page %d: %v", payload.SourceFile, payload.Page, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	chunk := &model.DocumentEmbedding{
		Content:        payload.Content,
		EmbeddingValue: pgvector.NewVector(embeddingRes.Values),
		SourceFile:     payload.SourceFile,
		Page:           payload.Page,
	}
	if err := cs.repo.Create(ctx, chunk); err != nil {
		log.Printf("[ERROR] Failed to store chunk %s page %d: %v", payload.SourceFile, payload.Page, err)
		msg.Nack()
		return
	}

	msg.Ack()
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/repository"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// chunkMaxChars bounds one stored chunk when the document carries no
// explicit page breaks
const chunkMaxChars = 1200

type IIngestionService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
}

type ingestionService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	repo      repository.DocumentEmbeddingRepository
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo repository.DocumentEmbeddingRepository,
) IIngestionService {
	return &ingestionService{
		pubSub:    pubSub,
		topicName: topicName,
		repo:      repo,
	}
}

// Ingest splits a document into page-sized chunks and publishes one
// embedding event per chunk. Embedding and storage happen asynchronously
// in the consumer.
func (is *ingestionService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	if req.Replace {
		if err := is.repo.DeleteBySourceFile(ctx, req.SourceFile); err != nil {
			return nil, fmt.Errorf("replace existing chunks: %w", err)
		}
	}

	chunks := SplitIntoChunks(req.Content)
	for page, chunk := range chunks {
		payload, err := json.Marshal(dto.PublishEmbedChunkMessage{
			SourceFile: req.SourceFile,
			Page:       page,
			Content:    chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal chunk event: %w", err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := is.pubSub.Publish(is.topicName, msg); err != nil {
			return nil, fmt.Errorf("publish chunk event: %w", err)
		}
	}

	return &dto.IngestDocumentResponse{
		SourceFile: req.SourceFile,
		Chunks:     len(chunks),
	}, nil
}

// SplitIntoChunks divides a document into page-like chunks. Form feeds are
// honored as hard page breaks; otherwise paragraphs are packed up to the
// chunk size limit.
func SplitIntoChunks(content string) []string {
	if strings.Contains(content, "\f") {
		var pages []string
		for _, page := range strings.Split(content, "\f") {
			if trimmed := strings.TrimSpace(page); trimmed != "" {
				pages = append(pages, trimmed)
			}
		}
		return pages
	}

	var chunks []string
	var current strings.Builder

	for _, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(paragraph) > chunkMaxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

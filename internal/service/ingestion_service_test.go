package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"audit-ai-be/internal/dto"
	"audit-ai-be/internal/model"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
)

func TestSplitIntoChunksFormFeedPages(t *testing.T) {
	content := "page one text\fpage two text\f\f  \fpage three"

	chunks := SplitIntoChunks(content)
	assert.Equal(t, []string{"page one text", "page two text", "page three"}, chunks)
}

func TestSplitIntoChunksParagraphPacking(t *testing.T) {
	small := "short paragraph"
	big := strings.Repeat("x", chunkMaxChars)

	chunks := SplitIntoChunks(small + "\n\n" + big + "\n\n" + small)

	// The oversized paragraph forces a flush before and after itself
	assert.Len(t, chunks, 3)
	assert.Equal(t, small, chunks[0])
	assert.Equal(t, big, chunks[1])
	assert.Equal(t, small, chunks[2])
}

func TestSplitIntoChunksPacksSmallParagraphs(t *testing.T) {
	content := "alpha\n\nbeta\n\ngamma"

	chunks := SplitIntoChunks(content)
	assert.Equal(t, []string{"alpha\n\nbeta\n\ngamma"}, chunks)
}

func TestSplitIntoChunksEmpty(t *testing.T) {
	assert.Empty(t, SplitIntoChunks(""))
	assert.Empty(t, SplitIntoChunks("\n\n  \n\n"))
}

func TestIngestPublishesOneEventPerChunk(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "EMBED_DOCUMENT_CHUNK")
	assert.NoError(t, err)

	repo := &stubRepo{}
	svc := NewIngestionService(pubSub, "EMBED_DOCUMENT_CHUNK", repo)

	resp, err := svc.Ingest(ctx, &dto.IngestDocumentRequest{
		SourceFile: "nist_csf.txt",
		Content:    "page one\fpage two",
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Chunks)
	assert.Equal(t, "nist_csf.txt", resp.SourceFile)

	for page := 0; page < 2; page++ {
		select {
		case msg := <-messages:
			var payload dto.PublishEmbedChunkMessage
			assert.NoError(t, json.Unmarshal(msg.Payload, &payload))
			assert.Equal(t, "nist_csf.txt", payload.SourceFile)
			assert.Equal(t, page, payload.Page)
			msg.Ack()
		case <-ctx.Done():
			t.Fatalf("timed out waiting for chunk event %d", page)
		}
	}
}

func TestIngestReplaceDeletesExistingChunksFirst(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	repo := &recordingRepo{}
	svc := NewIngestionService(pubSub, "EMBED_DOCUMENT_CHUNK", repo)

	_, err := svc.Ingest(context.Background(), &dto.IngestDocumentRequest{
		SourceFile: "nist_csf.txt",
		Content:    "replacement content",
		Replace:    true,
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"nist_csf.txt"}, repo.deleted)
}

func TestIngestWithoutReplaceKeepsExistingChunks(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	repo := &recordingRepo{}
	svc := NewIngestionService(pubSub, "EMBED_DOCUMENT_CHUNK", repo)

	_, err := svc.Ingest(context.Background(), &dto.IngestDocumentRequest{
		SourceFile: "nist_csf.txt",
		Content:    "appended content",
	})
	assert.NoError(t, err)
	assert.Empty(t, repo.deleted)
}

// recordingRepo tracks deletions on top of the inert stub
type recordingRepo struct {
	stubRepo
	deleted []string
}

func (r *recordingRepo) DeleteBySourceFile(ctx context.Context, sourceFile string) error {
	r.deleted = append(r.deleted, sourceFile)
	return nil
}

func (r *recordingRepo) Create(ctx context.Context, embedding *model.DocumentEmbedding) error {
	return nil
}

package dto

// PublishEmbedChunkMessage is the payload for document chunk embedding events
type PublishEmbedChunkMessage struct {
	SourceFile string `json:"source_file"`
	Page       int    `json:"page"`
	Content    string `json:"content"`
}

type IngestDocumentRequest struct {
	SourceFile string `json:"source_file" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Replace    bool   `json:"replace"`
}

type IngestDocumentResponse struct {
	SourceFile string `json:"source_file"`
	Chunks     int    `json:"chunks"`
}

package domain

// Document is the resume text loaded once at startup.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Chunk is a contiguous part of the document used for retrieval.
// Start is the byte offset of Text in Document.Content.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
	Start      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Turn is one question/answer exchange kept in conversation memory.
type Turn struct {
	Question string
	Answer   string
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore holds one vector per chunk and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Clear() error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

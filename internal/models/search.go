package models

// SearchContext narrows retrieval by caller-provided situation details.
type SearchContext struct {
	Age string `json:"edad,omitempty"`
}

// SearchResult is a ranked retrieval hit.
type SearchResult struct {
	ProtocolID     string  `json:"protocol_id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
	Snippet        string  `json:"snippet,omitempty"`
}

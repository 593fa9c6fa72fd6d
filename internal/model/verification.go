package model

// VerificationRequest identifies one candidate URL to verify
type VerificationRequest struct {
	Link string `json:"link"`
}

// VerificationResult is the shape merged back into the calling graph's state.
// RelevantLinks and PageContents are positionally parallel and always the same length.
type VerificationResult struct {
	RelevantLinks []string `json:"relevantLinks"`
	PageContents  []string `json:"pageContents"`
}

// NotRelevant returns the empty result for a link that should not be included
func NotRelevant() *VerificationResult {
	return &VerificationResult{
		RelevantLinks: []string{},
		PageContents:  []string{},
	}
}

// Relevant returns the single-entry result for a verified link
func Relevant(link, content string) *VerificationResult {
	return &VerificationResult{
		RelevantLinks: []string{link},
		PageContents:  []string{content},
	}
}

// IsRelevant reports whether the result carries a verified link
func (r *VerificationResult) IsRelevant() bool {
	return r != nil && len(r.RelevantLinks) > 0
}

// RelevancyJudgment is the language model's structured answer.
// Reasoning is kept for logs only.
type RelevancyJudgment struct {
	Reasoning string `json:"reasoning"`
	Relevant  bool   `json:"relevant"`
}

// Document is one fragment returned by the scrape backend
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// internal/models/task.go
package models

// TaskRequest is the inbound unit of work posted to the webhook endpoint.
type TaskRequest struct {
	Secret        string       `json:"secret"`
	Task          string       `json:"task"`
	Brief         string       `json:"brief"`
	Checks        []string     `json:"checks"`
	Attachments   []Attachment `json:"attachments"`
	Round         int          `json:"round"`
	Email         string       `json:"email"`
	Nonce         string       `json:"nonce"`
	EvaluationURL string       `json:"evaluation_url"`
}

// Attachment points at externally hosted input data. The name is used only to
// infer the media kind from its extension; the URL is passed through to the
// generation model unresolved.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GeneratedFile is one (path, content) record produced by the generation
// model. All files are placed at the repository root.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RepoHandle identifies a hosting repository after creation or lookup.
type RepoHandle struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	PagesURL string `json:"pages_url,omitempty"`
}

// EvaluationResult is the outbound payload delivered to the evaluation
// callback. Round is serialized as a string per the callback contract.
type EvaluationResult struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     string `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

package main

// MatchResponseCLI reports which paths belong to a test prefix.
type MatchResponseCLI struct {
	Prefix   string           `json:"prefix"`
	Suffix   string           `json:"suffix"`
	Included int              `json:"included"`
	Results  []MatchResultCLI `json:"results"`
}

type MatchResultCLI struct {
	Path     string `json:"path"`
	Included bool   `json:"included"`
}

// FindResponseCLI lists snapshot files found on disk.
type FindResponseCLI struct {
	Prefix string   `json:"prefix,omitempty"`
	Suffix string   `json:"suffix"`
	Dirs   []string `json:"dirs"`
	Files  []string `json:"files"`
}

// AcceptResponseCLI lists received files promoted to verified.
type AcceptResponseCLI struct {
	Accepted []AcceptedFileCLI `json:"accepted"`
}

type AcceptedFileCLI struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CleanResponseCLI lists removed received files.
type CleanResponseCLI struct {
	Removed []string `json:"removed"`
}

// StatusResponseCLI lists recent ledger results.
type StatusResponseCLI struct {
	LedgerEnabled bool              `json:"ledgerEnabled"`
	Results       []StatusResultCLI `json:"results"`
}

type StatusResultCLI struct {
	RunID      string `json:"runId"`
	Test       string `json:"test"`
	File       string `json:"file"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

// VersionResponseCLI describes the build.
type VersionResponseCLI struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	Full      string `json:"-"`
}

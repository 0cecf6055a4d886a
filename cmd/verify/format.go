package main

import (
	"fmt"
	"strings"

	"verify/internal/output"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as indented JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := output.EncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *MatchResponseCLI:
		return formatMatchHuman(v), nil
	case *FindResponseCLI:
		return formatFindHuman(v), nil
	case *AcceptResponseCLI:
		return formatAcceptHuman(v), nil
	case *CleanResponseCLI:
		return formatCleanHuman(v), nil
	case *StatusResponseCLI:
		return formatStatusHuman(v), nil
	case *VersionResponseCLI:
		return v.Full, nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatMatchHuman(resp *MatchResponseCLI) string {
	var b strings.Builder
	for _, r := range resp.Results {
		mark := "-"
		if r.Included {
			mark = "+"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, r.Path)
	}
	fmt.Fprintf(&b, "\n%d of %d paths belong to %q", resp.Included, len(resp.Results), resp.Prefix)
	return b.String()
}

func formatFindHuman(resp *FindResponseCLI) string {
	if len(resp.Files) == 0 {
		return "No matching files."
	}
	return strings.Join(resp.Files, "\n")
}

func formatAcceptHuman(resp *AcceptResponseCLI) string {
	if len(resp.Accepted) == 0 {
		return "Nothing to accept."
	}
	var b strings.Builder
	for _, f := range resp.Accepted {
		fmt.Fprintf(&b, "accepted %s -> %s\n", f.From, f.To)
	}
	fmt.Fprintf(&b, "\n%d file(s) accepted", len(resp.Accepted))
	return b.String()
}

func formatCleanHuman(resp *CleanResponseCLI) string {
	if len(resp.Removed) == 0 {
		return "Nothing to clean."
	}
	var b strings.Builder
	for _, f := range resp.Removed {
		fmt.Fprintf(&b, "removed %s\n", f)
	}
	fmt.Fprintf(&b, "\n%d file(s) removed", len(resp.Removed))
	return b.String()
}

func formatStatusHuman(resp *StatusResponseCLI) string {
	if !resp.LedgerEnabled {
		return "Results ledger is disabled. Set ledger.enabled in .verify/config.json."
	}
	if len(resp.Results) == 0 {
		return "No recorded results."
	}

	var b strings.Builder
	b.WriteString("Recent results\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "%-9s %s  %s\n", r.Status, r.RecordedAt, r.File)
		if r.Test != "" {
			fmt.Fprintf(&b, "          test: %s\n", r.Test)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

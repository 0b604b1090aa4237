package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/skinscope/internal/cli"
	"github.com/Veraticus/skinscope/internal/diseaseinfo"
)

func diseasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diseases",
		Aliases: []string{"conditions"},
		Short:   "List the conditions the classifier can predict",
		RunE:    runDiseases,
	}
	cmd.Flags().Bool("json", false, "print the reference table as JSON")
	return cmd
}

type diseaseOutput struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Risk        string `json:"risk,omitempty"`
	RiskLevel   string `json:"risk_level,omitempty"`
	Treatment   string `json:"treatment,omitempty"`
}

func runDiseases(cmd *cobra.Command, _ []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	if jsonOut {
		return writeDiseasesJSON(out, diseaseinfo.Entries())
	}
	fmt.Fprintln(out, renderDiseases(diseaseinfo.Entries()))
	return nil
}

func renderDiseases(entries []diseaseinfo.Entry) string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle("Skin Condition Reference"))
	b.WriteString("\n")
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(cli.SeverityStyle(string(e.Severity)).Render(e.Title))
		b.WriteString("\n")
		b.WriteString(cli.FormatField("Description", e.Description))
		b.WriteString("\n")
		if e.RiskLevel != "" {
			b.WriteString(cli.FormatField("Risk level", e.RiskLevel))
			b.WriteString("\n")
		}
		if e.Risk != "" {
			b.WriteString(cli.FormatField("Malignancy", e.Risk))
			b.WriteString("\n")
		}
		if e.Treatment != "" {
			b.WriteString(cli.FormatField("Treatment", e.Treatment))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDiseasesJSON(w io.Writer, entries []diseaseinfo.Entry) error {
	out := make([]diseaseOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, diseaseOutput{
			Key:         e.Key,
			Title:       e.Title,
			Description: e.Description,
			Severity:    string(e.Severity),
			Risk:        e.Risk,
			RiskLevel:   e.RiskLevel,
			Treatment:   e.Treatment,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode reference table: %w", err)
	}
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

type extractOutput struct {
	Text    string         `json:"text"`
	Type    extract.Format `json:"type"`
	Stats   map[string]int `json:"stats"`
	Length  int            `json:"length"`
	Version string         `json:"version,omitempty"`
}

type jobTextOutput struct {
	Source   extract.Source `json:"source"`
	Text     string         `json:"text"`
	JobTitle string         `json:"job_title"`
}

// newExtractCmd runs the document pipeline for one URL and prints the result.
func newExtractCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extracts text from a PDF or DOCX document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.Documents.ExtractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !asJSON {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}
			return writeJSON(cmd, extractOutput{
				Text:    res.Text,
				Type:    res.Format,
				Stats:   res.Stats,
				Length:  res.Length,
				Version: res.Version,
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

// newJobTextCmd runs the job posting pipeline for one URL and prints the result.
func newJobTextCmd() *cobra.Command {
	var (
		asJSON bool
		crawl  bool
	)
	cmd := &cobra.Command{
		Use:   "job-text <url>",
		Short: "Extracts the text and title of a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			extractFn := app.JobText.ExtractJobText
			if crawl {
				extractFn = app.JobText.ExtractWithCrawl
			}
			res, err := extractFn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !asJSON {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", res.Title, res.Text)
				return err
			}
			return writeJSON(cmd, jobTextOutput{Source: res.Source, Text: res.Text, JobTitle: res.Title})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&crawl, "crawl", false, "always use the remote crawl service")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

package topicseed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/report.html
var htmlTemplate string

//go:embed templates/styles.css
var cssStyles string

var reportFlags struct {
	input    string
	output   string
	markdown string
}

var GenerateReportCmd = &cobra.Command{
	Use:   "report -i <suggestions.json>",
	Short: "Render a suggestion file as an HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(reportFlags.input)
		if err != nil {
			return fmt.Errorf("failed to read suggestions: %w", err)
		}
		var result MaximiseResult
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("failed to parse suggestions: %w", err)
		}

		report := GenerateReportMarkdown(&result)
		if reportFlags.markdown != "" {
			if err := os.WriteFile(reportFlags.markdown, []byte(report), 0644); err != nil {
				return fmt.Errorf("failed to write markdown report: %w", err)
			}
			log.Printf("Report generated: %s", reportFlags.markdown)
		}

		htmlContent, err := RenderReportHTML("Training suggestions: "+result.Topic, report, time.Now())
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportFlags.output, []byte(htmlContent), 0644); err != nil {
			return fmt.Errorf("failed to write HTML file: %w", err)
		}
		log.Printf("HTML report generated: %s", reportFlags.output)
		return nil
	},
}

func init() {
	GenerateReportCmd.Flags().StringVarP(&reportFlags.input, "input", "i", "suggestions.json", "suggestion file written by suggest")
	GenerateReportCmd.Flags().StringVarP(&reportFlags.output, "output", "o", "report.html", "HTML output file")
	GenerateReportCmd.Flags().StringVar(&reportFlags.markdown, "markdown", "", "also write the markdown source here")
}

// GenerateReportMarkdown writes the suggestion set, clustering quality and
// every cluster as a markdown document.
func GenerateReportMarkdown(result *MaximiseResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Suggested sentences\n\n")
	fmt.Fprintf(&sb, "%d sentences chosen from %d clusters over %d labelled and %d generated sentences",
		len(result.ClusterSuggestion), len(result.Clusters), len(result.LabelledSentences), len(result.GeneratedSentences))
	if result.Rejected > 0 {
		fmt.Fprintf(&sb, " (%d generated sentences rejected)", result.Rejected)
	}
	sb.WriteString(".\n\n")
	writeSentenceTable(&sb, result.ClusterSuggestion)

	if len(result.ModelSuggestion) > 0 {
		sb.WriteString("## Language model selection\n\n")
		writeSentenceTable(&sb, result.ModelSuggestion)
	}

	if len(result.Summaries) > 0 {
		sb.WriteString("## Clustering quality\n\n")
		sb.WriteString("| Sentences | Clusters | Threshold | Silhouette | Intra | Inter | Assessment |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		for _, s := range result.Summaries {
			fmt.Fprintf(&sb, "| %d | %d | %.4f | %.4f | %.4f | %.4f | %s |\n",
				s.Items, s.Clusters, s.Threshold, s.Silhouette,
				s.IntraClusterDistance, s.InterClusterDistance, s.QualityAssessment)
		}
		sb.WriteString("\n")
	}

	if len(result.NewKeywords)+len(result.NewNameVariations)+len(result.NewDifficultCases) > 0 {
		sb.WriteString("## Generated hints\n\n")
		writeList(&sb, "Keywords", result.NewKeywords)
		writeList(&sb, "Name variations", result.NewNameVariations)
		writeList(&sb, "Difficult cases", result.NewDifficultCases)
	}

	sb.WriteString("## Clusters\n\n")
	for _, g := range result.Clusters {
		if g.Label != LabelNone {
			fmt.Fprintf(&sb, "### %s cluster %d\n\n", g.Label, g.ClusterID)
		} else {
			fmt.Fprintf(&sb, "### Cluster %d\n\n", g.ClusterID)
		}
		for _, s := range g.Sentences {
			fmt.Fprintf(&sb, "- %s\n", escapeMarkdown(s.SentenceText))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeSentenceTable(sb *strings.Builder, sentences []LabelledSentence) {
	sb.WriteString("| Sentence | Label | Explanation |\n")
	sb.WriteString("|---|---|---|\n")
	for _, s := range sentences {
		fmt.Fprintf(sb, "| %s | %s | %s |\n", escapeMarkdown(s.SentenceText), s.Label, escapeMarkdown(s.Explanation))
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", escapeMarkdown(item))
	}
	sb.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderReportHTML converts a markdown report into a standalone HTML page.
func RenderReportHTML(title, markdownContent string, date time.Time) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdownContent), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	data := struct {
		Title string
		Date  string
		Body  template.HTML
		CSS   template.CSS
	}{
		Title: title,
		Date:  date.Format("2 January 2006"),
		Body:  template.HTML(buf.String()),
		CSS:   template.CSS(cssStyles),
	}

	var result bytes.Buffer
	if err := tmpl.Execute(&result, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return result.String(), nil
}

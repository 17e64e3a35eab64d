// Package report persists finished comparison reports to disk and formats
// them for human consumption.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/leadmatch/leadmatch/internal/model"
)

// Format selects the on-disk report representation.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer saves comparison reports under a directory, one timestamped file
// per report.
type Writer struct {
	dir    string
	format Format
}

// NewWriter creates a Writer. An empty format defaults to text.
func NewWriter(dir string, format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{dir: dir, format: format}
}

// Save writes the report and returns the file path.
func (w *Writer) Save(report *model.ComparisonReport) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "report: create dir")
	}

	now := time.Now()
	filename := fmt.Sprintf("business_match_report_%s.%s", now.Format("20060102_150405"), w.format)
	path := filepath.Join(w.dir, filename)

	var data []byte
	var err error
	switch w.format {
	case FormatJSON:
		data, err = json.MarshalIndent(report, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(report)
	default:
		data = []byte(FormatReport(report, now))
	}
	if err != nil {
		return "", eris.Wrap(err, "report: encode")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrap(err, "report: write file")
	}

	zap.L().Info("report: saved", zap.String("path", path))
	return path, nil
}

// FormatReport renders the full report as readable text.
func FormatReport(report *model.ComparisonReport, generatedAt time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 40)

	b.WriteString(rule + "\n")
	b.WriteString("    BUSINESS MATCH ANALYSIS REPORT\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Generated On: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	b.WriteString(sub + "\nUSER COMPANY PROFILE\n" + sub + "\n")
	writeProfile(&b, report.UserCompany)
	b.WriteString("\n")

	b.WriteString(sub + "\nLEAD COMPANY PROFILE\n" + sub + "\n")
	writeProfile(&b, report.LeadCompany)
	b.WriteString("\n")

	b.WriteString(sub + "\nCOMPARATIVE ANALYSIS\n" + sub + "\n")
	writeComparison(&b, report.Comparison)
	b.WriteString("\n")

	b.WriteString(sub + "\nNUMERIC SUMMARY\n" + sub + "\n")
	writeSummary(&b, report.NumericSummary)
	b.WriteString("\n")

	b.WriteString(rule + "\nEND OF REPORT\n" + rule + "\n")
	return b.String()
}

func writeProfile(b *strings.Builder, p model.CompanyProfile) {
	fmt.Fprintf(b, "• Company Name: %s\n", orNA(p.Name))
	fmt.Fprintf(b, "• Description: %s\n", orNA(p.Description))
	fmt.Fprintf(b, "• Industry: %s\n", orNA(p.Industry))
	fmt.Fprintf(b, "• Size: %s\n", orNA(p.Size))
	fmt.Fprintf(b, "• Location: %s\n", orNA(p.Location))
	fmt.Fprintf(b, "• Website: %s\n", orNA(p.Website))

	if len(p.Specialties) > 0 {
		b.WriteString("• Specialties:\n")
		for _, s := range p.Specialties {
			fmt.Fprintf(b, "    - %s\n", s)
		}
	}
	if len(p.Services) > 0 {
		b.WriteString("• Services:\n")
		for _, s := range p.Services {
			fmt.Fprintf(b, "    - %s\n", s)
		}
	}
}

func writeComparison(b *strings.Builder, c model.Comparison) {
	if c.Degraded() {
		fmt.Fprintf(b, "\nAnalysis unavailable: %s\n", c.Error)
		return
	}

	fmt.Fprintf(b, "\nMatch Summary: %s\n", orNA(c.MatchSummary))
	fmt.Fprintf(b, "Match Percentage: %v%%\n\n", c.MatchPercentage)

	if c.Alignment != nil {
		fmt.Fprintf(b, "Stage Comparison: %s\n", c.Alignment.StageComparison)
		fmt.Fprintf(b, "Size Compatibility: %s\n", c.Alignment.SizeCompatibility)
		fmt.Fprintf(b, "Budget Fit: %s\n\n", c.Alignment.BudgetFit)
	}

	b.WriteString("Similarities:\n")
	for _, sim := range c.Similarities {
		fmt.Fprintf(b, "  ✓ %s\n", sim)
	}
	b.WriteString("\nDifferences:\n")
	for _, diff := range c.Differences {
		fmt.Fprintf(b, "  ✗ %s\n", diff)
	}

	b.WriteString("\nCategory Analysis:\n")
	for _, key := range model.ScoreCategories {
		cat, ok := c.CategoryAnalysis[key]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "  • %s: %v%%\n", key, cat.Score)
		if cat.Explanation != "" {
			fmt.Fprintf(b, "    %s\n", cat.Explanation)
		}
	}

	fmt.Fprintf(b, "\nVerdict:\n%s\n", orNA(c.Verdict))
}

func writeSummary(b *strings.Builder, s model.NumericSummary) {
	b.WriteString("\nCategory Scores (0-100):\n")
	for _, key := range model.ScoreCategories {
		fmt.Fprintf(b, "  • %-22s %3d%%\n", label(key)+":", s.Scores[key])
	}
	b.WriteString("\n  ══════════════════════════════\n")
	fmt.Fprintf(b, "  OVERALL MATCH SCORE:     %3d%%\n", s.OverallScore)
	b.WriteString("  ══════════════════════════════\n")
	fmt.Fprintf(b, "\nRecommendation: %s\n", orNA(s.Recommendation))
}

// label turns a snake_case category key into a display label.
func label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

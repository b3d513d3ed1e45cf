package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"rmvc/domain/dataset"
	"rmvc/domain/rmvc"
	"rmvc/internal/profiling"
)

// defaultMatrixColumns caps the membership matrix section of a report.
const defaultMatrixColumns = 30

// Report renders an analysis as a markdown document, optionally converted
// to a standalone HTML page.
type Report struct {
	Title         string
	Precision     int
	HTML          bool
	Issues        []dataset.CellIssue
	MatrixColumns int // 0 uses defaultMatrixColumns
}

// ContentType implements ports.ResultExporter.
func (r Report) ContentType() string {
	if r.HTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Export implements ports.ResultExporter.
func (r Report) Export(w io.Writer, res *rmvc.Result) error {
	md, err := r.Markdown(res)
	if err != nil {
		return err
	}
	if r.HTML {
		md = r.render(md)
	}
	_, err = w.Write(md)
	return err
}

func (r Report) render(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: r.title(),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

func (r Report) title() string {
	if r.Title == "" {
		return "Relational membership analysis"
	}
	return "Relational membership analysis: " + r.Title
}

// Markdown builds the report body.
func (r Report) Markdown(res *rmvc.Result) ([]byte, error) {
	var b bytes.Buffer
	p := r.Precision
	optimal, best := res.Optimal()

	fmt.Fprintf(&b, "# %s\n\n", escape(r.title()))
	fmt.Fprintf(&b, "- Candidates: %d\n", res.Set.Size())
	fmt.Fprintf(&b, "- Criteria: %d (%d non-empty)\n", res.Set.CriterionCount(), res.Set.NonEmptyCount())
	fmt.Fprintf(&b, "- Optimal choice: **%s**\n", escape(strings.Join(optimal, ", ")))
	fmt.Fprintf(&b, "- Best score: %s (%s)\n\n", rmvc.FormatRat(best, p), rmvc.FormatExact(best))

	b.WriteString("## Ranking\n\n")
	b.WriteString("| Rank | Candidate | Score | Exact | Optimal |\n|---:|---|---:|---:|:---:|\n")
	for _, rc := range res.Ranking {
		mark := ""
		if rc.Optimal {
			mark = "✓"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			rc.Rank, escape(rc.Candidate), rmvc.FormatRat(rc.Score, p), rmvc.FormatExact(rc.Score), mark)
	}

	b.WriteString("\n## Criteria\n\n")
	b.WriteString("| Criterion | Label | Size | Gamma | Members |\n|---|---|---:|---:|---|\n")
	for _, c := range res.Set.Criteria() {
		gamma, _ := res.Matrix.Gamma(c.Key)
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
			c.Key, escape(c.Label), c.Size(), gamma, escape(strings.Join(c.Members, ", ")))
	}

	r.writeMatrix(&b, res)

	profile, err := profiling.ProfileResult(res)
	if err != nil {
		return nil, fmt.Errorf("profile scores: %w", err)
	}
	s := profile.Scores
	b.WriteString("\n## Score distribution\n\n")
	b.WriteString("| Mean | Median | Std dev | Min | Q1 | Q3 | Max | Gap to runner-up | Density |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %.*f | %.*f | %.*f | %.*f | %.*f | %.*f | %.*f | %.*f | %.1f%% |\n",
		p, s.Mean, p, s.Median, p, s.StdDev, p, s.Min, p, s.Q25, p, s.Q75, p, s.Max, p, profile.Gap, profile.Density*100)

	if len(r.Issues) > 0 {
		b.WriteString("\n## Data issues\n\n")
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, "- %s\n", escape(issue.String()))
		}
	}
	return b.Bytes(), nil
}

func (r Report) writeMatrix(b *bytes.Buffer, res *rmvc.Result) {
	limit := r.MatrixColumns
	if limit <= 0 {
		limit = defaultMatrixColumns
	}
	candidates := res.Matrix.Candidates()

	b.WriteString("\n## Membership matrix\n\n")
	if len(candidates) > limit {
		fmt.Fprintf(b, "_%d candidates; export the matrix as CSV or XLSX to see every column._\n", len(candidates))
		return
	}
	b.WriteString("| Criterion |")
	for _, u := range candidates {
		fmt.Fprintf(b, " %s |", escape(u))
	}
	b.WriteString("\n|---|" + strings.Repeat("---:|", len(candidates)) + "\n")
	for ci, key := range res.Matrix.Criteria() {
		fmt.Fprintf(b, "| %s |", key)
		for ui := range candidates {
			fmt.Fprintf(b, " %s |", rmvc.FormatRat(res.Matrix.Value(ci, ui), r.Precision))
		}
		b.WriteString("\n")
	}
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;")

func escape(s string) string { return markdownEscaper.Replace(s) }

package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/scholia/internal/models"
)

// Service renders a stored document as a downloadable PDF. Note bodies
// are frequently markdown, so the content is parsed and typeset rather
// than dumped as plain text.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// ExportPDF renders the document into PDF bytes
func (s *Service) ExportPDF(doc *models.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Write(7, doc.Title)
	pdf.Ln(8)

	if line := metadataLine(doc); line != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.Write(5, line)
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)
	source := []byte(doc.Content)
	root := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{pdf: pdf, source: source}
	if err := renderer.render(root); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().
		Str("doc_id", doc.ID).
		Int("pdf_size", buf.Len()).
		Msg("Exported document PDF")

	return buf.Bytes(), nil
}

// metadataLine summarizes the collection and note taxonomy for the
// header under the title.
func metadataLine(doc *models.Document) string {
	parts := []string{string(doc.Collection)}
	if doc.Note != nil {
		if doc.Note.Subject != "" {
			parts = append(parts, doc.Note.Subject)
		}
		if doc.Note.Exam != "" {
			parts = append(parts, doc.Note.Exam)
		}
		if len(doc.Note.Topics) > 0 {
			parts = append(parts, strings.Join(doc.Note.Topics, ", "))
		}
	}
	return strings.Join(parts, " | ")
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	bold      bool
	italic    bool
	listLevel int
}

func (r *pdfRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont("Arial", style, 9)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.Text(r.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindCodeSpan:
		return r.handleCodeSpan(n.(*ast.CodeSpan), entering)
	case ast.KindFencedCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.CodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindList:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(2)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			indent := float64(r.listLevel) * 5.0
			r.pdf.SetX(15 + indent)
			r.pdf.Write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 12.0
		switch n.Level {
		case 1:
			size = 13
		case 2:
			size = 12
		case 3:
			size = 11
		default:
			size = 10
		}
		r.pdf.SetFont("Arial", "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleCodeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", 9)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.updateFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) renderCodeBlock(lines *text.Segments) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Courier", "", 8)
	r.pdf.SetFillColor(245, 245, 245)

	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.pdf.MultiCell(0, 5, string(line.Value(r.source)), "", "L", true)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(2)
}

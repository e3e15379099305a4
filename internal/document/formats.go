package document

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxRun       = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>|</w:p>|<w:tab/>|<w:br/>`)
	docxBlankRuns = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var sb strings.Builder
	for _, m := range docxRun.FindAllStringSubmatch(content, -1) {
		switch m[0] {
		case "</w:p>", "<w:br/>":
			sb.WriteString("\n")
		case "<w:tab/>":
			sb.WriteString("\t")
		default:
			sb.WriteString(html.UnescapeString(m[1]))
		}
	}
	return docxBlankRuns.ReplaceAllString(sb.String(), "\n\n"), nil
}

// markdownText walks the goldmark AST and keeps only the readable text, one
// block per line, so markup characters never reach the embedder.
func markdownText(src []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var w lineWriter
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && n.Kind() != ast.KindList {
				w.endLine()
			}
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			w.write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				w.write([]byte{'\n'})
			}
		case *ast.String:
			w.write(v.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			w.write(v.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(w.sb.String())
}

// lineWriter remembers whether the output ends with a newline.
type lineWriter struct {
	sb    strings.Builder
	atEOL bool
}

func (w *lineWriter) write(b []byte) {
	if len(b) == 0 {
		return
	}
	w.sb.Write(b)
	w.atEOL = b[len(b)-1] == '\n'
}

// endLine terminates the current line unless it already is.
func (w *lineWriter) endLine() {
	if !w.atEOL {
		w.sb.WriteByte('\n')
		w.atEOL = true
	}
}

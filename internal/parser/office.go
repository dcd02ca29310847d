package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"pdf-rag/internal/models"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// DOCX has no page numbers, paragraphs are joined and split by size
func (p *ParserConfig) parseDOCX(filePath string) ([]models.Chunk, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, para := range strings.Split(content, "</w:p>") {
		t := strings.TrimSpace(extractTextFromXML(para, "w:t", ""))
		if t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	return p.getChunks(strings.Join(paragraphs, "\n"), defaultPageNumber)
}

// one page per slide, numbered by the slide file name
func (p *ParserConfig) parsePPTX(filePath string) ([]models.Chunk, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range f.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: num, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var chunks []models.Chunk
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		slideChunks, err := p.getChunks(extractTextFromXML(string(data), "a:t", " "), s.num)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, slideChunks...)
	}
	return chunks, nil
}

// one page per sheet
func (p *ParserConfig) parseXLSX(filePath string) ([]models.Chunk, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for sheetNum, sheet := range f.Sheets {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		hasContent := false
		for _, row := range sheet.Rows {
			if row == nil {
				continue
			}
			for _, cell := range row.Cells {
				value := cell.String()
				if strings.TrimSpace(value) != "" {
					hasContent = true
				}
				sb.WriteString(value + "\t")
			}
			sb.WriteString("\n")
		}
		// skip sheets that hold nothing but the header
		if !hasContent {
			continue
		}
		sheetChunks, err := p.getChunks(sb.String(), sheetNum+1)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sheetChunks...)
	}
	return chunks, nil
}

// macro-enabled workbooks and templates, one page per sheet
func (p *ParserConfig) parseExcelize(filePath string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		hasContent := false
		for _, row := range rows {
			line := strings.Join(row, "\t")
			if strings.TrimSpace(line) != "" {
				hasContent = true
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if !hasContent {
			continue
		}
		sheetChunks, err := p.getChunks(sb.String(), sheetNum+1)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sheetChunks...)
	}
	return chunks, nil
}

func (p *ParserConfig) parseMarkdown(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.getChunks(markdownToText(data), defaultPageNumber)
}

// markdownToText walks the goldmark AST and keeps only the readable text,
// one line per block.
func markdownToText(src []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// extractTextFromXML concatenates the text of every <tag> element, tags with
// attributes included.
func extractTextFromXML(xmlContent, tag, sep string) string {
	var sb strings.Builder
	open, closing := "<"+tag, "</"+tag+">"
	rest := xmlContent
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			break
		}
		rest = rest[start+len(open):]
		// skip longer tag names sharing the prefix, e.g. <w:tab>
		if rest == "" || (rest[0] != '>' && rest[0] != ' ') {
			continue
		}
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			break
		}
		if gt > 0 && rest[gt-1] == '/' {
			rest = rest[gt+1:]
			continue
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, closing)
		if end < 0 {
			break
		}
		sb.WriteString(rest[:end])
		sb.WriteString(sep)
		rest = rest[end+len(closing):]
	}
	return sb.String()
}

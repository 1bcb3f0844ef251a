// Package parser turns raw Markdown bytes into a model.Document: front
// matter, a nested section tree, and the ordered wiki-links found in the
// body.
package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/siherrmann/kddindex/model"
	"github.com/siherrmann/kddindex/rules"
	"gopkg.in/yaml.v3"
)

// skipNoFrontMatter is the Skipped reason given when a file has no leading
// "---" front-matter block.
const skipNoFrontMatter = "no_front_matter"

// Skipped records why a file was not turned into a Document.
type Skipped struct {
	Reason string
}

func (s *Skipped) Error() string {
	return "skipped: " + s.Reason
}

var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(\|[^\]]+)?\]\]`)

// Parse parses the bytes of one source file into a Document. A file with no
// front-matter block returns a *Skipped error; a file with a front-matter
// block that isn't valid YAML returns a plain error.
func Parse(sourcePath string, raw []byte) (*model.Document, error) {
	raw = stripBOM(raw)

	frontMatter, body, ok := splitFrontMatter(raw)
	if !ok {
		return nil, &Skipped{Reason: skipNoFrontMatter}
	}

	var fm map[string]any
	if err := yaml.Unmarshal(frontMatter, &fm); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(raw)

	doc := &model.Document{
		ID:          documentID(sourcePath, fm),
		Kind:        rules.RouteDocument(fm),
		SourcePath:  sourcePath,
		SourceHash:  hex.EncodeToString(hash[:]),
		Layer:       rules.LayerOf(sourcePath),
		FrontMatter: fm,
	}
	segments := strings.Split(filepath.ToSlash(sourcePath), "/")
	for i := 0; i+2 < len(segments); i++ {
		if segments[i] == "domains" {
			doc.Domain = segments[i+1]
			break
		}
	}
	if domain, ok := fm["domain"].(string); ok && doc.Domain == "" {
		doc.Domain = domain
	}

	doc.Sections = parseSections(body)
	doc.WikiLinks = extractWikiLinks(doc.Sections)

	return doc, nil
}

// documentID prefers an explicit front-matter "id", falling back to the
// source file's base name (without extension) so a document missing that
// field still gets a stable, path-derived identity.
func documentID(sourcePath string, fm map[string]any) string {
	if id, ok := fm["id"].(string); ok && id != "" {
		return id
	}
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stripBOM(raw []byte) []byte {
	return bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
}

// splitFrontMatter recognizes a leading "---\n...\n---\n" block. ok is false
// when no such block is present at the very start of the file.
func splitFrontMatter(raw []byte) (frontMatter, body []byte, ok bool) {
	const delim = "---"
	text := string(raw)
	if !strings.HasPrefix(text, delim) {
		return nil, nil, false
	}
	rest := text[len(delim):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	idx := indexOfDelimiterLine(rest, delim)
	if idx < 0 {
		return nil, nil, false
	}
	return []byte(rest[:idx]), []byte(rest[idx+len(delim):]), true
}

// indexOfDelimiterLine finds the byte offset of a line that is exactly the
// delimiter, scanning line by line so an unrelated "---" inside a value
// never matches.
func indexOfDelimiterLine(text, delim string) int {
	offset := 0
	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == delim {
			return offset
		}
		offset += len(line)
	}
	return -1
}

var atxHeading = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// parseSections lexes the document body into a nested tree by ATX heading
// level. Paragraphs are blank-line-separated; pipe-tables are captured
// whole; fenced code/mermaid blocks are captured as opaque body text.
func parseSections(body []byte) []*model.Section {
	lines := strings.Split(string(body), "\n")

	root := &model.Section{Level: 0}
	stack := []*model.Section{root}
	var paraBuf []string
	var tableBuf []string
	var codeFence string

	flushParagraph := func() {
		text := strings.TrimSpace(strings.Join(paraBuf, " "))
		paraBuf = nil
		if text == "" {
			return
		}
		current := stack[len(stack)-1]
		current.Body = append(current.Body, text)
	}
	flushTable := func() {
		if len(tableBuf) == 0 {
			return
		}
		current := stack[len(stack)-1]
		current.Tables = append(current.Tables, parseTable(tableBuf))
		tableBuf = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if codeFence != "" {
			current := stack[len(stack)-1]
			if len(current.Body) > 0 {
				current.Body[len(current.Body)-1] += "\n" + line
			} else {
				current.Body = append(current.Body, line)
			}
			if trimmed == codeFence {
				codeFence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			flushParagraph()
			flushTable()
			codeFence = trimmed[:3]
			current := stack[len(stack)-1]
			current.Body = append(current.Body, line)
			continue
		}

		if m := atxHeading.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			flushTable()
			level := len(m[1])
			heading := strings.TrimSpace(m[2])
			section := &model.Section{Heading: heading, Level: level}

			for len(stack) > 1 && stack[len(stack)-1].Level >= level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, section)
			stack = append(stack, section)
			continue
		}

		if trimmed == "" {
			flushParagraph()
			flushTable()
			continue
		}

		if isTableLine(trimmed) {
			flushParagraph()
			tableBuf = append(tableBuf, trimmed)
			continue
		}
		flushTable()

		paraBuf = append(paraBuf, trimmed)
	}
	flushParagraph()
	flushTable()

	return root.Children
}

func isTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

var tableSeparatorCell = regexp.MustCompile(`^:?-+:?$`)

func isTableSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c != "" && !tableSeparatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

func parseTable(lines []string) model.Table {
	if len(lines) == 0 {
		return model.Table{}
	}
	header := splitTableRow(lines[0])
	var rows [][]string
	for _, line := range lines[1:] {
		cells := splitTableRow(line)
		if isTableSeparatorRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return model.Table{Header: header, Rows: rows}
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func extractWikiLinks(sections []*model.Section) []model.WikiLink {
	var links []model.WikiLink
	var walk func(s *model.Section)
	walk = func(s *model.Section) {
		for _, body := range s.Body {
			for _, m := range wikiLinkPattern.FindAllStringSubmatch(body, -1) {
				target := m[1]
				alias := strings.TrimPrefix(m[2], "|")
				domain := ""
				if idx := strings.Index(target, "::"); idx >= 0 {
					domain = target[:idx]
					target = target[idx+2:]
				}
				links = append(links, model.WikiLink{
					Target:      target,
					Alias:       alias,
					Section:     s.Heading,
					CrossDomain: domain,
				})
			}
		}
		for _, child := range s.Children {
			walk(child)
		}
	}
	for _, s := range sections {
		walk(s)
	}
	return links
}

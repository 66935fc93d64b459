// Package pagexml reads and patches PAGE layout documents: one TextLine
// element per line of text, with the recognized text nested under
// TextEquiv/Unicode and the page image referenced by Page/@imageFilename.
package pagexml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/sha1n/pagesearch/internal/domain"
)

// Element and attribute names, matched on local name regardless of namespace.
const (
	TagTextLine  = "TextLine"
	TagTextEquiv = "TextEquiv"
	TagUnicode   = "Unicode"
	TagPage      = "Page"

	AttrImageFilename = "imageFilename"
)

// ParseError reports a document that is not well-formed markup.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RewriteError reports a failure to update the image reference of a document.
type RewriteError struct {
	Path string
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite %s: %v", e.Path, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}

var errNoRoot = errors.New("document has no root element")

func readDocument(path string) (*etree.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errNoRoot
	}
	return doc, nil
}

// checkWellFormed runs the strict decoder over data. etree reads raw tokens
// and accepts unbalanced elements.
func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ExtractLines returns the non-empty text lines of the document at path in
// document order. Line numbers count every TextLine element, including the
// ones whose text is missing or empty and therefore omitted.
func ExtractLines(path string) ([]domain.TextLine, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var lines []domain.TextLine
	number := 0
	walk(doc.Root(), func(e *etree.Element) {
		if e.Tag != TagTextLine {
			return
		}
		number++
		if text := lineText(e); text != "" {
			lines = append(lines, domain.TextLine{Number: number, Text: text})
		}
	})
	return lines, nil
}

// lineText returns the text of the first Unicode element below the line's
// own TextEquiv child. Word and glyph level TextEquiv elements are ignored.
func lineText(line *etree.Element) string {
	equiv := line.SelectElement(TagTextEquiv)
	if equiv == nil {
		return ""
	}
	unicode := findFirst(equiv, TagUnicode)
	if unicode == nil {
		return ""
	}
	return innerText(unicode)
}

// SetImageFilename sets Page/@imageFilename of the document at path to
// filename and rewrites the file indented. Whitespace-only text of leaf
// elements is kept. The file is replaced atomically, so on failure it is
// left untouched.
func SetImageFilename(path, filename string) error {
	doc, err := readDocument(path)
	if err != nil {
		return &RewriteError{Path: path, Err: err}
	}

	page := findFirst(doc.Root(), TagPage)
	if page == nil {
		return &RewriteError{Path: path, Err: fmt.Errorf("no %s element", TagPage)}
	}
	page.CreateAttr(AttrImageFilename, filename)
	doc.IndentWithSettings(indentSettings())

	if err := writeAtomic(doc, path); err != nil {
		return &RewriteError{Path: path, Err: err}
	}
	return nil
}

func indentSettings() *etree.IndentSettings {
	s := etree.NewIndentSettings()
	s.Spaces = 2
	s.PreserveLeafWhitespace = true
	return s
}

// ImageFilename returns Page/@imageFilename of the document at path.
func ImageFilename(path string) (string, error) {
	doc, err := readDocument(path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	page := findFirst(doc.Root(), TagPage)
	if page == nil {
		return "", nil
	}
	return page.SelectAttrValue(AttrImageFilename, ""), nil
}

func writeAtomic(doc *etree.Document, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pagexml-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := doc.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpPath, info.Mode().Perm())
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// walk visits e and its descendants in document order.
func walk(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	for _, child := range e.ChildElements() {
		walk(child, fn)
	}
}

// findFirst returns the first descendant of e (excluding e) with the given
// local name, in document order.
func findFirst(e *etree.Element, tag string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// innerText concatenates all character data below e.
func innerText(e *etree.Element) string {
	var sb strings.Builder
	var collect func(*etree.Element)
	collect = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				collect(t)
			}
		}
	}
	collect(e)
	return sb.String()
}

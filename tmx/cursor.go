package tmx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// cursor is a sequential, non-lookahead walk over a document's element
// structure. It skips comments, directives and blank character data, tracks
// the current location for diagnostics, and routes every element the
// calling parser does not recognize through a single warn-and-skip path.
type cursor struct {
	dec    *xml.Decoder
	path   string
	logger *slog.Logger
}

func newCursor(r io.Reader, path string, logger *slog.Logger) *cursor {
	return &cursor{dec: xml.NewDecoder(r), path: path, logger: logger}
}

// location describes the current position for diagnostics.
func (c *cursor) location() string {
	line, column := c.dec.InputPos()
	if line <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%v:%v", line, column)
}

// fatal wraps err into a ParseError at the current location. Errors that
// already carry a location pass through unchanged.
func (c *cursor) fatal(err error) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{Path: c.path, Location: c.location(), Err: err}
}

// advance returns the next semantically meaningful token: a start element,
// an end element, or non-blank character data. It returns io.EOF at the
// end of the document; parsers inside an open element translate that into
// ErrUnexpectedEOF. Structural errors, including a close tag that does not
// match the open one, surface here as fatal errors.
func (c *cursor) advance() (xml.Token, error) {
	for {
		tok, err := c.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) && syntaxErr.Msg == "unexpected EOF" {
				// Input ended inside an open element.
				return nil, c.fatal(ErrUnexpectedEOF)
			}
			return nil, c.fatal(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return xml.CopyToken(t), nil
		case xml.EndElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.CopyToken(t), nil
			}
		}
	}
}

// skipSubtree consumes and discards the rest of the most recently opened
// element, including all nested structure.
func (c *cursor) skipSubtree() error {
	if err := c.dec.Skip(); err != nil {
		return c.fatal(err)
	}
	return nil
}

// ignoreUnexpected handles any element the calling parser does not know:
// warn and drop the whole subtree.
func (c *cursor) ignoreUnexpected(name xml.Name) error {
	c.logger.Warn("ignoring unexpected element",
		slog.String("element", name.Local),
		slog.String("location", c.location()))
	return c.skipSubtree()
}

// ignoreRedundant handles a second occurrence of an element of which only
// one is allowed. This is the only duplicate-element policy.
func (c *cursor) ignoreRedundant(name xml.Name) error {
	c.logger.Warn("ignoring redundant element",
		slog.String("element", name.Local),
		slog.String("location", c.location()))
	return c.skipSubtree()
}

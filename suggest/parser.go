package suggest

import (
	"errors"
	"strings"

	"ghosttab/logger"
)

// CursorSentinel marks the caret position inside search/replace payloads.
const CursorSentinel = "<<<AUTOCOMPLETE_HERE>>>"

const (
	tagChangeOpen   = "<change>"
	tagChangeClose  = "</change>"
	tagSearchOpen   = "<search>"
	tagSearchClose  = "</search>"
	tagReplaceOpen  = "<replace>"
	tagReplaceClose = "</replace>"
	tagCDATAOpen    = "<![CDATA["
	tagCDATAClose   = "]]>"

	// A model occasionally closes CDATA with this malformed token instead
	// of "]]>". Repaired during Finish only.
	tagCDATABroken = "</![CDATA["
)

// Document is the anchoring context for one streaming session: the full
// text of the buffer at request time plus the caret position.
type Document struct {
	Path string
	Text string
	Row  int // 1-indexed cursor line
	Col  int // 0-indexed byte column
}

// CursorOffset returns the caret position as a byte offset into Text
func (d *Document) CursorOffset() int {
	off := 0
	line := 1
	for off < len(d.Text) && line < d.Row {
		if d.Text[off] == '\n' {
			line++
		}
		off++
	}
	off += d.Col
	if off > len(d.Text) {
		off = len(d.Text)
	}
	return off
}

// ParsedChange is one complete search/replace block extracted from the
// stream. Replace has the cursor sentinel stripped; CursorOffset is the
// byte offset the sentinel occupied within Replace, or -1 when absent.
type ParsedChange struct {
	Search       string
	Replace      string
	CursorOffset int
}

type parseState int

const (
	scanOutside parseState = iota // hunting for <change>
	scanSearchOpen
	scanSearchData
	scanSearchBody // inside CDATA, hunting for ]]>
	scanSearchClose
	scanReplaceOpen
	scanReplaceData
	scanReplaceBody
	scanReplaceClose
	scanChangeClose
)

// expectedToken is the literal each non-body state consumes next
var expectedToken = map[parseState]string{
	scanSearchOpen:   tagSearchOpen,
	scanSearchData:   tagCDATAOpen,
	scanSearchClose:  tagSearchClose,
	scanReplaceOpen:  tagReplaceOpen,
	scanReplaceData:  tagCDATAOpen,
	scanReplaceClose: tagReplaceClose,
	scanChangeClose:  tagChangeClose,
}

// Parser incrementally extracts change blocks from a streamed model
// response. It is an explicit state machine over an append-only buffer:
// Feed never consumes past an unterminated token, so results are
// identical regardless of how the stream is chunked. One Parser serves
// one streaming session.
type Parser struct {
	doc *Document

	buf        []byte
	pos        int // everything before pos is consumed
	state      parseState
	blockStart int // offset of the <change> that opened the current block

	// captured bodies of the block in flight
	search         string
	pendingReplace string

	changes  []ParsedChange
	finished bool
	complete bool
}

// NewParser creates a parser anchored to doc. A nil doc is allowed for
// pure extraction; Anchor then fails explicitly.
func NewParser(doc *Document) *Parser {
	return &Parser{doc: doc}
}

// Feed appends chunk to the buffer and returns any change blocks completed
// by it, in stream order.
func (p *Parser) Feed(chunk string) []ParsedChange {
	if p.finished || chunk == "" {
		return nil
	}
	p.buf = append(p.buf, chunk...)
	out := p.scan()
	if !p.complete {
		p.complete = p.computeComplete()
	}
	return out
}

// Finish marks the stream ended and, when nothing was extracted, attempts
// a one-shot repair of known model malformations before a final scan:
// broken CDATA terminators are rewritten, and a single block missing only
// its </change> (possibly truncated mid-token) is closed. Returns any
// changes recovered by the repair.
func (p *Parser) Finish() []ParsedChange {
	if p.finished {
		return nil
	}
	p.finished = true

	if len(p.changes) > 0 || len(strings.TrimSpace(string(p.buf))) == 0 {
		if !p.complete {
			p.complete = p.computeComplete()
		}
		return nil
	}

	s := string(p.buf)
	repaired := strings.ReplaceAll(s, tagCDATABroken, tagCDATAClose)

	if strings.Count(repaired, tagChangeOpen) == 1 &&
		!strings.Contains(repaired, tagChangeClose) &&
		strings.Count(repaired, tagSearchClose) == 1 &&
		strings.Count(repaired, tagReplaceClose) == 1 {
		repaired = closeTruncatedChange(repaired)
	}

	if repaired == s {
		return nil
	}
	logger.Debug("parser: repaired malformed response (%d bytes)", len(repaired))

	p.buf = []byte(repaired)
	p.pos = 0
	p.state = scanOutside
	out := p.scan()
	if !p.complete {
		p.complete = p.computeComplete()
	}
	return out
}

// closeTruncatedChange strips a trailing partial "</change" token, if any,
// and appends the full closing tag.
func closeTruncatedChange(s string) string {
	trimmed := strings.TrimRight(s, " \t\r\n")
	for k := len(tagChangeClose) - 1; k >= 1; k-- {
		if strings.HasSuffix(trimmed, tagChangeClose[:k]) {
			trimmed = trimmed[:len(trimmed)-k]
			break
		}
	}
	return trimmed + tagChangeClose
}

// IsComplete reports whether the response is structurally finished: at
// least one change extracted, the scanner is between blocks, and no
// further opening token has begun. Once true it stays true.
func (p *Parser) IsComplete() bool {
	return p.complete
}

func (p *Parser) computeComplete() bool {
	if len(p.changes) == 0 || p.state != scanOutside {
		return false
	}
	// Any '<' in the tail could be the start of another block, possibly
	// still arriving. Only tag-free trailing text counts as done.
	return !strings.Contains(string(p.buf[p.pos:]), "<")
}

// Changes returns every change extracted so far
func (p *Parser) Changes() []ParsedChange {
	return p.changes
}

// scan advances the state machine as far as the buffered bytes allow,
// returning the blocks completed during this pass.
func (p *Parser) scan() []ParsedChange {
	var out []ParsedChange
	for {
		switch p.state {
		case scanOutside:
			i := strings.Index(string(p.buf[p.pos:]), tagChangeOpen)
			if i < 0 {
				// Leave pos alone: a partial "<chan" at the buffer end
				// must survive for the next chunk.
				return out
			}
			p.blockStart = p.pos + i
			p.pos = p.blockStart + len(tagChangeOpen)
			p.state = scanSearchOpen

		case scanSearchBody, scanReplaceBody:
			i := strings.Index(string(p.buf[p.pos:]), tagCDATAClose)
			if i < 0 {
				return out
			}
			body := string(p.buf[p.pos : p.pos+i])
			p.pos += i + len(tagCDATAClose)
			if p.state == scanSearchBody {
				p.search = body
				p.state = scanSearchClose
			} else {
				p.pendingReplace = body
				p.state = scanReplaceClose
			}

		default:
			tok := expectedToken[p.state]
			j := p.pos
			for j < len(p.buf) && isSpace(p.buf[j]) {
				j++
			}
			rem := p.buf[j:]
			switch {
			case len(rem) >= len(tok) && string(rem[:len(tok)]) == tok:
				p.pos = j + len(tok)
				if p.state == scanChangeClose {
					out = append(out, p.emit(p.pendingReplace))
					p.state = scanOutside
				} else {
					p.state++
				}
			case len(rem) < len(tok) && strings.HasPrefix(tok, string(rem)):
				// partial token at buffer end, wait for more input
				return out
			default:
				p.abortBlock()
			}
		}
	}
}

// abortBlock abandons the current block and resumes hunting for the next
// <change> just past the one that opened it.
func (p *Parser) abortBlock() {
	logger.Debug("parser: malformed block at offset %d, resyncing", p.blockStart)
	p.pos = p.blockStart + 1
	p.state = scanOutside
	p.search = ""
	p.pendingReplace = ""
}

// emit finalizes one block: the cursor sentinel is located in the replace
// payload, recorded, and stripped.
func (p *Parser) emit(replace string) ParsedChange {
	cursor := -1
	if i := strings.Index(replace, CursorSentinel); i >= 0 {
		cursor = i
		replace = replace[:i] + replace[i+len(CursorSentinel):]
	}
	c := ParsedChange{Search: p.search, Replace: replace, CursorOffset: cursor}
	p.changes = append(p.changes, c)
	p.search = ""
	p.pendingReplace = ""
	return c
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// ErrNoDocument is returned by Anchor when the parser was built without
// document context. This is a programming error at the call site, not a
// stream condition, so it is surfaced rather than swallowed.
var ErrNoDocument = errors.New("suggest: anchor requires document context")

// Anchor resolves a parsed change against the session document, producing
// line operations. A change whose search text cannot be located is dropped
// (nil, nil): mismatches against a moving buffer are expected, not errors.
func (p *Parser) Anchor(c ParsedChange) ([]*Operation, error) {
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return anchorChange(p.doc, c), nil
}

func anchorChange(doc *Document, c ParsedChange) []*Operation {
	search := strings.ReplaceAll(c.Search, CursorSentinel, "")
	var ops []*Operation

	if search == "" {
		// Zero-width anchor: the model addressed the caret itself. A
		// placeholder deletion keeps grouping honest without claiming any
		// document text.
		ops = append(ops, &Operation{
			Type:        OpDeletion,
			Content:     "",
			Line:        doc.Row,
			Placeholder: true,
		})
		for i, line := range splitLines(c.Replace) {
			ops = append(ops, &Operation{Type: OpAddition, Content: line, Line: doc.Row + i})
		}
		return ops
	}

	start, end := FindBestMatch(doc.Text, search)
	if start < 0 {
		logger.Debug("anchor: no match for %d-byte search in %s", len(search), doc.Path)
		return nil
	}

	startLine := lineOfOffset(doc.Text, start)
	placeholder := strings.Contains(c.Search, CursorSentinel)
	for i, line := range splitLines(doc.Text[start:end]) {
		ops = append(ops, &Operation{
			Type:        OpDeletion,
			Content:     line,
			Line:        startLine + i,
			Placeholder: placeholder && line == "",
		})
	}
	for i, line := range splitLines(c.Replace) {
		ops = append(ops, &Operation{Type: OpAddition, Content: line, Line: startLine + i})
	}
	return ops
}

// splitLines splits on \n, dropping the empty element a trailing newline
// would otherwise produce. An empty string yields no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Package parser implements the streaming, line-by-line session-log reader.
// It is a lazy pull iterator: one line is read and classified per Next
// call, so memory use stays bounded regardless of file size.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"memory-nexus/internal/extract"
	"memory-nexus/internal/nexuserr"
	"memory-nexus/internal/nexusmodel"
)

// Parser is a finite, non-restartable iterator over one session log file.
type Parser struct {
	file      *os.File
	reader    *bufio.Reader
	path      string
	sessionID string
	lineNum   int
	offset    int64
	done      bool
}

// Open opens path for streaming from the start and derives the session ID
// from its base filename: the file's UUID stem names the session.
func Open(path string) (*Parser, error) {
	return OpenAt(path, 0)
}

// OpenAt opens path for streaming starting at byteOffset, letting a resumed
// sync parse only the portion appended since the last recorded offset.
// byteOffset of 0 behaves like Open.
func OpenAt(path string, byteOffset int64) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nexuserr.Wrap(nexuserr.KindIOError, "failed to open session file", err).WithPath(path)
	}
	if byteOffset > 0 {
		if _, err := f.Seek(byteOffset, io.SeekStart); err != nil {
			f.Close()
			return nil, nexuserr.Wrap(nexuserr.KindIOError, "failed to seek session file", err).WithPath(path)
		}
	}
	return &Parser{
		file:      f,
		reader:    bufio.NewReader(f),
		path:      path,
		sessionID: sessionIDFromPath(path),
		offset:    byteOffset,
	}, nil
}

func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SessionID returns the session identity derived at Open time.
func (p *Parser) SessionID() string { return p.sessionID }

// Offset returns the cumulative byte count read from the underlying file so
// far (relative to the start of the file, including any initial OpenAt
// offset), for recording as the next resume point.
func (p *Parser) Offset() int64 { return p.offset }

// Next returns the next classified event. ok is false once the file is
// exhausted; err is non-nil only for an I/O failure reading the file —
// malformed JSON lines are surfaced as a KindSkipped event, never as err,
// so a caller can keep draining the rest of the file: a malformed line
// never aborts the whole file.
func (p *Parser) Next() (nexusmodel.Event, bool, error) {
	if p.done {
		return nexusmodel.Event{}, false, nil
	}

	for {
		line, readErr := p.reader.ReadBytes('\n')
		atEOF := readErr == io.EOF
		p.offset += int64(len(line))

		if readErr != nil && !atEOF {
			p.done = true
			return nexusmodel.Event{}, false, nexuserr.Wrap(nexuserr.KindIOError, "error reading session file", readErr).WithPath(p.path)
		}

		if atEOF && len(line) == 0 {
			p.done = true
			return nexusmodel.Event{}, false, nil
		}

		p.lineNum++
		trimmed := bytes.TrimSpace(line)

		if atEOF {
			p.done = true
		}

		if len(trimmed) == 0 {
			if atEOF {
				return nexusmodel.Event{}, false, nil
			}
			continue
		}

		return p.classifyLine(trimmed), true, nil
	}
}

func (p *Parser) classifyLine(line []byte) nexusmodel.Event {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nexusmodel.Event{
			Kind: nexusmodel.KindSkipped,
			Skipped: &nexusmodel.Skipped{
				Reason:     fmt.Sprintf("Malformed JSON at line %d: %v", p.lineNum, err),
				LineNumber: p.lineNum,
			},
		}
	}
	return extract.Classify(raw, p.sessionID)
}

// Close releases the underlying file handle.
func (p *Parser) Close() error {
	return p.file.Close()
}

// All drains the parser into a slice, for tests and small fixtures. Not
// used by the sync engine itself, which calls Next directly and buffers the
// file's events so it can sort them by timestamp before committing.
func All(p *Parser) ([]nexusmodel.Event, error) {
	var events []nexusmodel.Event
	for {
		evt, ok, err := p.Next()
		if err != nil {
			return events, err
		}
		if !ok {
			return events, nil
		}
		events = append(events, evt)
	}
}

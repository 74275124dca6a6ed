// Package message implements the line-oriented chat protocol.
package message

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Protocol directives sent by server.
const (
	// DirectiveSubmitName - asks client to send a candidate name on the next line.
	DirectiveSubmitName = "SUBMITNAME"
	// DirectiveNameAccepted - confirms the last candidate is the client name now.
	DirectiveNameAccepted = "NAMEACCEPTED"
	// DirectiveMessage - prefixes relayed chat message.
	DirectiveMessage = "MESSAGE"
)

// Format - builds broadcast line for a message from author.
func Format(author, text string) string {
	return DirectiveMessage + " " + author + ": " + text
}

// Payload - extracts "<name>: <text>" part of broadcast line.
func Payload(line string) (payload string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, DirectiveMessage+" ") {
		return "", false
	}
	return line[len(DirectiveMessage)+1:], true
}

// Clean - drops invalid unicode sequences and control characters,
// other white space is replaced with single space.
func Clean(s string) string {
	if s == "" {
		return s
	}
	b := strings.Builder{}
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError:
			// drop
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Reader - reads protocol lines from client stream.
type Reader struct {
	r *bufio.Reader
}

// NewReader - builds line reader, there is no limit for line length.
func NewReader(r io.Reader) *Reader {
	return &Reader{bufio.NewReader(r)}
}

// ReadLine - returns next cleaned line without line terminator.
// Unterminated data before end of stream is returned as the last line,
// the next call returns io.EOF.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return Clean(line), nil
}

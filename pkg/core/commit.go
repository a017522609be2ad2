package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"minivcs/pkg/types"
)

var (
	ErrInvalidField    = errors.New("invalid commit field")
	ErrMalformedCommit = errors.New("malformed commit record")
)

const (
	GenesisTitle   = "Initial Commit"
	GenesisMessage = "This commit marks the initialization of the repository."

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	headerMarker  = "COMMIT HEADER"
	footerMarker  = "COMMIT FOOTER"
	sectionOpen   = "&&&"
	sectionClose  = "&&&&&"
	fileSeparator = ","
)

// FileEntry describes one staged file going into a commit.
type FileEntry struct {
	Name string
	Size int64
}

// Commit is an immutable commit record. Its identity is the SHA-256 of the
// full serialized form returned by Bytes.
type Commit struct {
	hash     types.Hash
	rawBytes []byte

	Parent    types.Hash
	Timestamp time.Time // UTC, truncated to the second
	Title     string
	Message   string
	Files     []string

	// footer
	Count int
	Size  int64
}

// NewCommit builds and seals a commit. now is captured once by the caller so
// the date and time lines agree.
func NewCommit(parent types.Hash, files []FileEntry, title, msg string, now time.Time) (*Commit, error) {
	if !parent.IsRoot() && !parent.IsValid() {
		return nil, fmt.Errorf("%w: parent %q is not a hash", ErrInvalidField, parent)
	}
	if err := validateText("title", title); err != nil {
		return nil, err
	}
	if err := validateText("message", msg); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	var size int64
	for _, f := range files {
		if err := ValidateFileName(f.Name); err != nil {
			return nil, err
		}
		if f.Size < 0 {
			return nil, fmt.Errorf("%w: negative size for %s", ErrInvalidField, f.Name)
		}
		names = append(names, f.Name)
		size += f.Size
	}

	c := &Commit{
		Parent:    parent,
		Timestamp: now.UTC().Truncate(time.Second),
		Title:     title,
		Message:   msg,
		Files:     names,
		Count:     len(names),
		Size:      size,
	}
	c.seal()
	return c, nil
}

// NewGenesisCommit builds the parentless commit written by repository init.
func NewGenesisCommit(now time.Time) (*Commit, error) {
	return NewCommit(types.NoParent, nil, GenesisTitle, GenesisMessage, now)
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) ID() types.Hash   { return c.hash }
func (c *Commit) Bytes() []byte    { return c.rawBytes }

// IsGenesis reports whether the commit has no parent.
func (c *Commit) IsGenesis() bool { return c.Parent.IsRoot() }

func (c *Commit) seal() {
	c.rawBytes = c.encode()
	c.hash = CalculateBlobHash(c.rawBytes)
}

func (c *Commit) encode() []byte {
	var buf bytes.Buffer

	buf.WriteString(headerMarker + "\n")
	buf.WriteString(sectionOpen + "\n")
	fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	fmt.Fprintf(&buf, "date %s\n", c.Timestamp.Format(dateLayout))
	fmt.Fprintf(&buf, "time %s\n", c.Timestamp.Format(timeLayout))
	fmt.Fprintf(&buf, "title %s\n", c.Title)
	fmt.Fprintf(&buf, "message %s\n", c.Message)
	fmt.Fprintf(&buf, "files [%s]\n", strings.Join(c.Files, fileSeparator))
	buf.WriteString(sectionClose + "\n")

	buf.WriteString(footerMarker + "\n")
	buf.WriteString(sectionOpen + "\n")
	fmt.Fprintf(&buf, "count %d\n", c.Count)
	fmt.Fprintf(&buf, "size %d\n", c.Size)
	buf.WriteString(sectionClose + "\n")

	return buf.Bytes()
}

// ParseCommit decodes a serialized commit record. The input must be in
// canonical form: re-encoding the parsed record has to reproduce data exactly,
// otherwise the hash would not match its key.
func ParseCommit(data []byte) (*Commit, error) {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		return nil, fmt.Errorf("%w: missing trailing newline", ErrMalformedCommit)
	}
	r := &lineReader{lines: strings.Split(string(data[:len(data)-1]), "\n")}

	r.expect(headerMarker)
	r.expect(sectionOpen)
	parent := r.field("parent")
	date := r.field("date")
	clock := r.field("time")
	title := r.field("title")
	message := r.field("message")
	files := r.field("files")
	r.expect(sectionClose)
	r.expect(footerMarker)
	r.expect(sectionOpen)
	count := r.field("count")
	size := r.field("size")
	r.expect(sectionClose)
	if r.err != nil {
		return nil, r.err
	}
	if !r.done() {
		return nil, fmt.Errorf("%w: trailing data after footer", ErrMalformedCommit)
	}

	var err error
	c := &Commit{Title: title, Message: message}
	c.Parent = types.Hash(parent)
	if !c.Parent.IsRoot() && !c.Parent.IsValid() {
		return nil, fmt.Errorf("%w: bad parent %q", ErrMalformedCommit, parent)
	}

	c.Timestamp, err = time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp: %v", ErrMalformedCommit, err)
	}

	c.Files, err = parseFileList(files)
	if err != nil {
		return nil, err
	}

	c.Count, err = strconv.Atoi(count)
	if err != nil {
		return nil, fmt.Errorf("%w: bad count %q", ErrMalformedCommit, count)
	}
	if c.Count != len(c.Files) {
		return nil, fmt.Errorf("%w: count %d does not match %d files", ErrMalformedCommit, c.Count, len(c.Files))
	}
	c.Size, err = strconv.ParseInt(size, 10, 64)
	if err != nil || c.Size < 0 {
		return nil, fmt.Errorf("%w: bad size %q", ErrMalformedCommit, size)
	}

	c.seal()
	if !bytes.Equal(c.rawBytes, data) {
		return nil, fmt.Errorf("%w: record is not in canonical form", ErrMalformedCommit)
	}
	return c, nil
}

func parseFileList(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("%w: bad file list %q", ErrMalformedCommit, s)
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return []string{}, nil
	}
	names := strings.Split(inner, fileSeparator)
	for _, n := range names {
		if err := ValidateFileName(n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCommit, err)
		}
	}
	return names, nil
}

// lineReader walks the record line by line. The first error sticks and
// every later call becomes a no-op.
type lineReader struct {
	lines []string
	pos   int
	err   error
}

func (r *lineReader) next(want string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	if r.pos >= len(r.lines) {
		r.err = fmt.Errorf("%w: unexpected end, want %q", ErrMalformedCommit, want)
		return "", false
	}
	l := r.lines[r.pos]
	r.pos++
	return l, true
}

func (r *lineReader) expect(want string) {
	got, ok := r.next(want)
	if ok && got != want {
		r.err = fmt.Errorf("%w: line %d: want %q, got %q", ErrMalformedCommit, r.pos, want, got)
	}
}

func (r *lineReader) field(key string) string {
	got, ok := r.next(key)
	if !ok {
		return ""
	}
	value, found := strings.CutPrefix(got, key+" ")
	if !found {
		r.err = fmt.Errorf("%w: line %d: want field %q, got %q", ErrMalformedCommit, r.pos, key, got)
	}
	return value
}

func (r *lineReader) done() bool { return r.pos == len(r.lines) }

func validateText(field, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: %s must be a single line", ErrInvalidField, field)
	}
	return nil
}

// ValidateFileName rejects names that cannot be written into the files line
// unambiguously or that would escape the index directory.
func ValidateFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: file name %q", ErrInvalidField, name)
	case strings.ContainsAny(name, "\r\n,[]/\\"):
		return fmt.Errorf("%w: file name %q contains a reserved character", ErrInvalidField, name)
	}
	return nil
}

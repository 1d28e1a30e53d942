package entity

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edison-dev/edison/internal/edisonerr"
)

const frontmatterDelim = "---"

// extensibleRegion pairs an opening "<!-- EXTENSIBLE: Name -->" comment
// with its matching close, so re-saving a file never re-renders
// hand-edited prose inside the markers.
type extensibleRegion struct {
	name  string
	start int
	end   int // exclusive, points past the close marker's line
}

// SplitFrontmatter separates a raw entity file into its YAML header
// bytes and markdown body. The header ends at the first line that is
// exactly "---".
func SplitFrontmatter(raw []byte) (header []byte, body string, err error) {
	idx := bytes.Index(raw, []byte("\n"+frontmatterDelim+"\n"))
	if idx < 0 {
		// Allow a file that is only a header with no trailing body.
		if bytes.HasSuffix(bytes.TrimRight(raw, "\n"), []byte(frontmatterDelim)) {
			return bytes.TrimSuffix(bytes.TrimRight(raw, "\n"), []byte(frontmatterDelim)), "", nil
		}
		return nil, "", edisonerr.New(edisonerr.KindIntegrityError, "", "entity file missing frontmatter delimiter")
	}
	header = raw[:idx]
	body = string(raw[idx+len(frontmatterDelim)+2:])
	return header, body, nil
}

// JoinFrontmatter renders headerYAML and body back into one file,
// preserving EXTENSIBLE regions in body verbatim (body is passed
// through unmodified; callers never regenerate markdown prose).
func JoinFrontmatter(headerYAML []byte, body string) []byte {
	var buf bytes.Buffer
	buf.Write(bytes.TrimRight(headerYAML, "\n"))
	buf.WriteString("\n")
	buf.WriteString(frontmatterDelim)
	buf.WriteString("\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// DecodeHeader unmarshals YAML header bytes into dst, which must be a
// pointer to a struct embedding Header (or compatible layout).
func DecodeHeader(headerYAML []byte, dst any) error {
	if err := yaml.Unmarshal(headerYAML, dst); err != nil {
		return edisonerr.Wrap(edisonerr.KindIntegrityError, "", "decoding entity frontmatter", err)
	}
	return nil
}

// EncodeHeader marshals src (a pointer to a struct embedding Header)
// back to YAML bytes, preserving field declaration order since
// yaml.v3 encodes struct fields in declared order (unlike map keys,
// which are unordered — this is why entity headers are always typed
// structs, never map[string]any).
func EncodeHeader(src any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(src); err != nil {
		return nil, edisonerr.Wrap(edisonerr.KindIntegrityError, "", "encoding entity frontmatter", err)
	}
	if err := enc.Close(); err != nil {
		return nil, edisonerr.Wrap(edisonerr.KindIntegrityError, "", "encoding entity frontmatter", err)
	}
	return buf.Bytes(), nil
}

// ExtensibleRegions scans body for matched "<!-- EXTENSIBLE: Name -->"
// / "<!-- /EXTENSIBLE: Name -->" comment pairs and returns their raw
// text keyed by name, so callers can re-inject them into a
// freshly-rendered body without re-deriving prose the engine doesn't
// own.
func ExtensibleRegions(body string) map[string]string {
	regions := map[string]string{}
	lines := strings.Split(body, "\n")
	var openName string
	var openIdx int
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if openName == "" {
			if name, ok := extensibleOpenName(trimmed); ok {
				openName = name
				openIdx = i + 1
			}
			continue
		}
		if extensibleCloseName(trimmed) == openName {
			regions[openName] = strings.Join(lines[openIdx:i], "\n")
			openName = ""
		}
	}
	return regions
}

func extensibleOpenName(line string) (string, bool) {
	const prefix, suffix = "<!-- EXTENSIBLE: ", " -->"
	if strings.HasPrefix(line, prefix) && strings.HasSuffix(line, suffix) {
		return strings.TrimSuffix(strings.TrimPrefix(line, prefix), suffix), true
	}
	return "", false
}

func extensibleCloseName(line string) string {
	const prefix, suffix = "<!-- /EXTENSIBLE: ", " -->"
	if strings.HasPrefix(line, prefix) && strings.HasSuffix(line, suffix) {
		return strings.TrimSuffix(strings.TrimPrefix(line, prefix), suffix)
	}
	return ""
}

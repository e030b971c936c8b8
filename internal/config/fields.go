package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// Port accepts either a number or a numeric string.
type Port int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return p.set(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("port must be a number or numeric string, got %s", data)
	}
	return p.set(strconv.Itoa(n))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Port) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: port must be a scalar", node.Line)
	}
	return p.set(node.Value)
}

func (p *Port) set(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid port %q", s)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	*p = Port(n)
	return nil
}

// DumpFlag records the dump_flag value and whether it was written as a string.
// Only the string "1" selects a table; the number 1 does not.
type DumpFlag struct {
	Value    string
	IsString bool
}

// Enabled reports whether the table is flagged for loading.
func (d DumpFlag) Enabled() bool {
	return d.IsString && d.Value == belaz.DumpFlagEnabled
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DumpFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DumpFlag{Value: s, IsString: true}
		return nil
	}
	*d = DumpFlag{Value: string(bytes.TrimSpace(data))}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DumpFlag) UnmarshalYAML(node *yaml.Node) error {
	*d = DumpFlag{Value: node.Value, IsString: node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str"}
	return nil
}

// ColumnList is the ordered field list of a table.
// It is written either as a list literal inside a string ("['id','name']")
// or as a real array.
type ColumnList []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ColumnList) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		cols, err := ParseColumns(literal)
		if err != nil {
			return err
		}
		*c = cols
		return nil
	}

	var cols []string
	if err := json.Unmarshal(data, &cols); err != nil {
		return fmt.Errorf("columns must be a list literal string or an array of strings")
	}
	*c = cols
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ColumnList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		cols, err := ParseColumns(node.Value)
		if err != nil {
			return err
		}
		*c = cols
		return nil
	case yaml.SequenceNode:
		var cols []string
		if err := node.Decode(&cols); err != nil {
			return err
		}
		*c = cols
		return nil
	default:
		return fmt.Errorf("line %d: columns must be a list literal string or a sequence", node.Line)
	}
}

// ParseColumns decodes a list literal of quoted strings such as
// "['id', 'name']" or "(\"id\",)". Only quoted string items are accepted;
// the literal is data, never evaluated.
func ParseColumns(literal string) ([]string, error) {
	s := strings.TrimSpace(literal)
	if len(s) < 2 {
		return nil, fmt.Errorf("invalid columns literal %q", literal)
	}

	// A tuple literal reads the same as a list.
	if s[0] == '(' && s[len(s)-1] == ')' {
		s = "[" + s[1:len(s)-1] + "]"
	}
	if s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("invalid columns literal %q: expected a list", literal)
	}

	// Trailing comma before the closing bracket.
	inner := strings.TrimRight(s[1:len(s)-1], " \t\r\n")
	inner = strings.TrimSuffix(inner, ",")

	inner, err := requoteItems(inner)
	if err != nil {
		return nil, fmt.Errorf("invalid columns literal %q: %v", literal, err)
	}
	s = "[" + inner + "]"

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return nil, fmt.Errorf("invalid columns literal %q: %v", literal, err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) != 1 || node.Content[0].Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("invalid columns literal %q: expected a list", literal)
	}

	seq := node.Content[0]
	cols := make([]string, 0, len(seq.Content))
	for _, item := range seq.Content {
		quoted := item.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0
		if item.Kind != yaml.ScalarNode || !quoted {
			return nil, fmt.Errorf("invalid columns literal %q: items must be quoted strings", literal)
		}
		if item.Value == "" {
			return nil, fmt.Errorf("invalid columns literal %q: empty column name", literal)
		}
		cols = append(cols, item.Value)
	}
	return cols, nil
}

// requoteItems rewrites every quoted item as a double-quoted YAML scalar,
// resolving backslash escapes first. Backslash is literal inside YAML
// single quotes, so 'it\'s' would not parse otherwise.
func requoteItems(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		quote := s[i]
		if quote != '\'' && quote != '"' {
			b.WriteByte(quote)
			continue
		}

		var body strings.Builder
		closed := false
		for i++; i < len(s); i++ {
			c := s[i]
			if c == quote {
				closed = true
				break
			}
			switch {
			case c == '\\' && i+1 < len(s):
				i++
				switch e := s[i]; e {
				case '\'':
					body.WriteByte('\'')
				case '"':
					body.WriteString(`\"`)
				case 'a', 'b', 'f', 'n', 'r', 't', 'v', '\\', 'x', 'u', 'U', '0', '1', '2', '3', '4', '5', '6', '7':
					body.WriteByte('\\')
					body.WriteByte(e)
				default:
					// Unknown escapes keep their backslash.
					body.WriteString(`\\`)
					body.WriteByte(e)
				}
			case c == '"':
				body.WriteString(`\"`)
			default:
				body.WriteByte(c)
			}
		}
		if !closed {
			return "", fmt.Errorf("unterminated string")
		}

		value, err := strconv.Unquote(`"` + body.String() + `"`)
		if err != nil {
			return "", fmt.Errorf("bad escape in %s", s)
		}
		b.WriteString(strconv.Quote(value))
	}
	return b.String(), nil
}

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_$]*$`)

// ValidateIdentifier checks that name is a plain PostgreSQL identifier,
// safe to place unquoted in a statement.
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("invalid %s: empty identifier: %w", kind, belaz.ErrInvalidConfig)
	}
	if len(name) > 63 {
		return fmt.Errorf("invalid %s %q: exceeds 63 character limit: %w", kind, name, belaz.ErrInvalidConfig)
	}
	if !validIdentifierPattern.MatchString(name) {
		return fmt.Errorf("invalid %s %q: not a valid identifier: %w", kind, name, belaz.ErrInvalidConfig)
	}
	return nil
}

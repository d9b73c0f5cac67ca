package kmanifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/birdayz/kgraph/kserde"
)

// Format names a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

var (
	yamlSerde = kserde.YAML[Document]()
	jsonSerde = kserde.StrictJSON[Document]()
)

// ParseYAML decodes and validates a YAML document.
func ParseYAML(src []byte) (*Document, error) {
	doc, err := yamlSerde.Deserializer(src)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidDocument, err)
	}
	return validated(&doc)
}

// ParseJSON decodes and validates a JSON document.
func ParseJSON(src []byte) (*Document, error) {
	doc, err := jsonSerde.Deserializer(src)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalidDocument, err)
	}
	return validated(&doc)
}

// ParseHCL decodes and validates an HCL document. Expressions may refer to
// vars as var.<name>.
func ParseHCL(src []byte, filename string, vars map[string]cty.Value) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %w", ErrInvalidDocument, filename, diags)
	}

	var doc Document
	diags = gohcl.DecodeBody(file.Body, evalContext(vars), &doc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %w", ErrInvalidDocument, filename, diags)
	}
	return validated(&doc)
}

func evalContext(vars map[string]cty.Value) *hcl.EvalContext {
	if vars == nil {
		vars = map[string]cty.Value{}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vars),
		},
	}
}

func validated(doc *Document) (*Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse decodes src in the given format. vars only apply to HCL.
func Parse(format Format, src []byte, filename string, vars map[string]cty.Value) (*Document, error) {
	switch format {
	case FormatYAML:
		return ParseYAML(src)
	case FormatJSON:
		return ParseJSON(src)
	case FormatHCL:
		return ParseHCL(src, filename, vars)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFile reads and parses a document, picking the format from the file
// extension.
func LoadFile(path string, vars map[string]cty.Value) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kmanifest: %w", err)
	}
	doc, err := Parse(format, src, path, vars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseVars converts name=value pairs into HCL variables. Values that parse
// as integers or booleans keep that type; everything else is a string.
func ParseVars(pairs []string) (map[string]cty.Value, error) {
	vars := make(map[string]cty.Value, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || !identPattern.MatchString(name) {
			return nil, fmt.Errorf("kmanifest: invalid variable %q, want name=value", pair)
		}
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			vars[name] = cty.NumberIntVal(i)
		} else if b, err := strconv.ParseBool(value); err == nil {
			vars[name] = cty.BoolVal(b)
		} else {
			vars[name] = cty.StringVal(value)
		}
	}
	return vars, nil
}

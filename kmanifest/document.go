// Package kmanifest describes dataflow graphs as documents.
//
// A document lists data types, nodes with their per-type port counts, and
// edges between "node:port" endpoints. It can be written in YAML, JSON or
// HCL:
//
//	type "audio" {}
//
//	node "osc" {
//	  priority = var.osc_priority
//	  port "audio" { outputs = 1 }
//	}
//
//	node "out" {
//	  port "audio" { inputs = 1 }
//	}
//
//	edge "audio" {
//	  from = "osc:0"
//	  to   = "out:0"
//	}
//
// Build turns a validated document into a kdag.DAG.
package kmanifest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Document is the root of a graph description.
type Document struct {
	Name  string     `yaml:"name,omitempty" json:"name,omitempty" hcl:"name,optional" validate:"omitempty,max=128"`
	Types []TypeDecl `yaml:"types" json:"types" hcl:"type,block" validate:"required,min=1,max=256,unique=Name,dive"`
	Nodes []NodeDecl `yaml:"nodes" json:"nodes" hcl:"node,block" validate:"max=10000,unique=Name,dive"`
	Edges []EdgeDecl `yaml:"edges,omitempty" json:"edges,omitempty" hcl:"edge,block" validate:"max=100000,dive"`
}

// TypeDecl declares a data type. A strict type requires every port of every
// node using it to be connected.
type TypeDecl struct {
	Name   string `yaml:"name" json:"name" hcl:"name,label" validate:"required,ident"`
	Strict bool   `yaml:"strict,omitempty" json:"strict,omitempty" hcl:"strict,optional"`
}

// NodeDecl declares a node. Nodes without an explicit ID get the lowest
// unused one, in declaration order.
type NodeDecl struct {
	Name     string     `yaml:"name" json:"name" hcl:"name,label" validate:"required,ident"`
	ID       *int       `yaml:"id,omitempty" json:"id,omitempty" hcl:"id,optional" validate:"omitempty,min=0"`
	Priority int        `yaml:"priority,omitempty" json:"priority,omitempty" hcl:"priority,optional"`
	Ports    []PortDecl `yaml:"ports,omitempty" json:"ports,omitempty" hcl:"port,block" validate:"unique=Type,dive"`
}

// PortDecl gives the number of ports a node exposes for one type.
type PortDecl struct {
	Type    string `yaml:"type" json:"type" hcl:"type,label" validate:"required"`
	Inputs  int    `yaml:"inputs,omitempty" json:"inputs,omitempty" hcl:"inputs,optional" validate:"min=0,max=1024"`
	Outputs int    `yaml:"outputs,omitempty" json:"outputs,omitempty" hcl:"outputs,optional" validate:"min=0,max=1024"`
}

// EdgeDecl connects output From to input To, both written "node:port".
type EdgeDecl struct {
	Type string `yaml:"type" json:"type" hcl:"type,label" validate:"required"`
	From string `yaml:"from" json:"from" hcl:"from" validate:"required,endpoint"`
	To   string `yaml:"to" json:"to" hcl:"to" validate:"required,endpoint"`
}

var (
	identPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	endpointPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*:\s*([0-9]+)\s*$`)
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
		return endpointPattern.MatchString(fl.Field().String())
	})
}

// Validate checks the document structure: required fields, identifier
// syntax, endpoint syntax, duplicate names and size limits. Cross
// references (unknown nodes or types) are reported by Build.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// endpoint is a parsed "node:port" reference.
type endpoint struct {
	node string
	port int
}

func parseEndpoint(s string) (endpoint, error) {
	m := endpointPattern.FindStringSubmatch(s)
	if m == nil {
		return endpoint{}, fmt.Errorf("%w: endpoint %q, want node:port", ErrInvalidDocument, s)
	}
	port, err := strconv.Atoi(m[2])
	if err != nil {
		return endpoint{}, fmt.Errorf("%w: endpoint %q: %v", ErrInvalidDocument, s, err)
	}
	return endpoint{node: m[1], port: port}, nil
}

func (e endpoint) String() string {
	return e.node + ":" + strconv.Itoa(e.port)
}

var (
	ErrInvalidDocument   = errors.New("kmanifest: invalid document")
	ErrUnknownNode       = errors.New("kmanifest: unknown node")
	ErrUnsupportedFormat = errors.New("kmanifest: unsupported document format")
)

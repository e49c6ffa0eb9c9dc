package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/procflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotProcedure is returned when the document root is not a procedure reference.
	ErrNotProcedure = errors.New("document root is not a procedure reference")
	// ErrInvalidMarker is returned for malformed $proc or $ref objects.
	ErrInvalidMarker = domain.ErrInvalidMarker
)

// Parser converts JSON or YAML call graph documents into procedure references.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a call graph document.
// Files ending in .yaml or .yml are read as YAML, anything else is sniffed.
func (p *Parser) ParseFile(path string) (domain.ProcedureRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ProcedureRef{}, fmt.Errorf("failed to read graph: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return p.ParseYAML(data)
	}
	return p.Parse(data)
}

// Parse decodes data as JSON when it starts with '{', otherwise as YAML.
func (p *Parser) Parse(data []byte) (domain.ProcedureRef, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return p.ParseJSON(data)
	}
	return p.ParseYAML(data)
}

// ParseJSON decodes a JSON document. Numbers decode as float64.
func (p *Parser) ParseJSON(data []byte) (domain.ProcedureRef, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ProcedureRef{}, fmt.Errorf("failed to parse graph: %w", err)
	}
	return root(raw)
}

// ParseYAML decodes a YAML document.
func (p *Parser) ParseYAML(data []byte) (domain.ProcedureRef, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.ProcedureRef{}, fmt.Errorf("failed to parse graph: %w", err)
	}
	return root(raw)
}

func root(raw any) (domain.ProcedureRef, error) {
	lifted, err := domain.Lift(raw)
	if err != nil {
		return domain.ProcedureRef{}, err
	}
	ref, ok := lifted.(domain.ProcedureRef)
	if !ok {
		return domain.ProcedureRef{}, ErrNotProcedure
	}
	return ref, nil
}

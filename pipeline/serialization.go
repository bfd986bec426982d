package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/agentpipe/types"
)

// Document is the wire representation of a graph as exchanged with the
// visual editor: nodes carry an opaque canvas position and a flat data
// record, edges carry optional port handles. The engine ignores Position
// entirely and treats Data as the node config.
type Document struct {
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Version    string         `json:"version,omitempty" yaml:"version,omitempty"`
	Nodes      []NodeDocument `json:"nodes" yaml:"nodes"`
	Edges      []EdgeDocument `json:"edges" yaml:"edges"`
	ExportedAt time.Time      `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// NodeDocument is the serialized form of a node.
type NodeDocument struct {
	ID       string          `json:"id" yaml:"id"`
	Type     string          `json:"type" yaml:"type"`
	Position json.RawMessage `json:"position,omitempty" yaml:"-"`
	Data     NodeConfig      `json:"data" yaml:"data"`
}

// EdgeDocument is the serialized form of an edge. Empty handles default
// to the conventional "output" source and "input" target ports.
type EdgeDocument struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"source_handle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"target_handle,omitempty"`
}

// Graph materializes the document into a Graph value. Position data is
// dropped; semantic validation is left to Check.
func (d *Document) Graph() *Graph {
	g := NewGraph()
	for _, nd := range d.Nodes {
		g.AddNode(&Node{ID: nd.ID, Kind: Kind(nd.Type), Config: nd.Data})
	}
	for _, ed := range d.Edges {
		srcPort := ed.SourceHandle
		if srcPort == "" {
			srcPort = "output"
		}
		dstPort := ed.TargetHandle
		if dstPort == "" {
			dstPort = "input"
		}
		g.AddEdge(&Edge{
			ID:         ed.ID,
			Source:     ed.Source,
			SourcePort: srcPort,
			Target:     ed.Target,
			TargetPort: dstPort,
		})
	}
	return g
}

// FromGraph converts a graph back into a document. Canvas positions are
// not reconstructed; the editor re-lays the graph out on import.
func FromGraph(name string, g *Graph) *Document {
	doc := &Document{
		Name:       name,
		Version:    "1.0",
		Nodes:      make([]NodeDocument, 0, len(g.Nodes())),
		Edges:      make([]EdgeDocument, 0, len(g.Edges())),
		ExportedAt: time.Now().UTC(),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDocument{ID: n.ID, Type: string(n.Kind), Data: n.Config})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDocument{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourcePort,
			TargetHandle: e.TargetPort,
		})
	}
	return doc
}

// Validate checks the document for structural defects that would make it
// unloadable: missing or duplicate ids and edges pointing at nodes the
// document does not contain. Semantic validation against a schema is the
// checker's job, not the document's.
func (d *Document) Validate() error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("document must have at least one node")
	}
	nodeIDs := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node id is required")
		}
		if n.Type == "" {
			return fmt.Errorf("node %s: type is required", n.ID)
		}
		if nodeIDs[n.ID] {
			return types.NewError(types.ErrDuplicateNode,
				fmt.Sprintf("duplicate node id: %s", n.ID)).WithNode(n.ID)
		}
		nodeIDs[n.ID] = true
	}
	edgeIDs := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge id is required")
		}
		if edgeIDs[e.ID] {
			return types.NewError(types.ErrDuplicateEdge,
				fmt.Sprintf("duplicate edge id: %s", e.ID))
		}
		edgeIDs[e.ID] = true
		if !nodeIDs[e.Source] {
			return fmt.Errorf("edge %s references unknown source node %s", e.ID, e.Source)
		}
		if !nodeIDs[e.Target] {
			return fmt.Errorf("edge %s references unknown target node %s", e.ID, e.Target)
		}
	}
	return nil
}

// ToJSON renders the document as indented JSON.
func (d *Document) ToJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

// ToYAML renders the document as YAML.
func (d *Document) ToYAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// FromJSON parses and validates a document from JSON.
func FromJSON(jsonStr string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from JSON: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &doc, nil
}

// FromYAML parses and validates a document from YAML.
func FromYAML(yamlStr string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal([]byte(yamlStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &doc, nil
}

// LoadFromJSONFile loads a document from a JSON file.
func LoadFromJSONFile(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromJSON(string(data))
}

// LoadFromYAMLFile loads a document from a YAML file.
func LoadFromYAMLFile(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromYAML(string(data))
}

// SaveToJSONFile writes the document to a JSON file.
func (d *Document) SaveToJSONFile(filename string) error {
	jsonStr, err := d.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal document to JSON: %w", err)
	}
	if err := os.WriteFile(filename, []byte(jsonStr), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// SaveToYAMLFile writes the document to a YAML file.
func (d *Document) SaveToYAMLFile(filename string) error {
	yamlStr, err := d.ToYAML()
	if err != nil {
		return fmt.Errorf("marshal document to YAML: %w", err)
	}
	if err := os.WriteFile(filename, []byte(yamlStr), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

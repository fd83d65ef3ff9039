// internal/browser/capture/snapshot.go
package capture

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptySnapshot is returned when a snapshot holds no document.
var ErrEmptySnapshot = errors.New("snapshot contains no documents")

// Node types as reported by the DOM domain.
const (
	nodeElement          = 1
	nodeText             = 3
	nodeComment          = 8
	nodeDocument         = 9
	nodeDocumentType     = 10
	nodeDocumentFragment = 11
)

// Snapshot is the result of DOMSnapshot.captureSnapshot. Every string in
// it is an index into Strings; -1 stands for an absent value.
type Snapshot struct {
	Documents []DocumentSnapshot `json:"documents"`
	Strings   []string           `json:"strings"`
}

// DocumentSnapshot is one frame's document.
type DocumentSnapshot struct {
	DocumentURL   int        `json:"documentURL"`
	Title         int        `json:"title"`
	BaseURL       int        `json:"baseURL"`
	Nodes         NodeTree   `json:"nodes"`
	Layout        LayoutTree `json:"layout"`
	ScrollOffsetX float64    `json:"scrollOffsetX"`
	ScrollOffsetY float64    `json:"scrollOffsetY"`
	ContentWidth  float64    `json:"contentWidth,omitempty"`
	ContentHeight float64    `json:"contentHeight,omitempty"`
}

// NodeTree holds the nodes of a document in pre-order, column by column.
type NodeTree struct {
	ParentIndex    []int     `json:"parentIndex"`
	NodeType       []int     `json:"nodeType"`
	ShadowRootType *RareData `json:"shadowRootType,omitempty"`
	NodeName       []int     `json:"nodeName"`
	NodeValue      []int     `json:"nodeValue"`
	BackendNodeID  []int     `json:"backendNodeId"`
	// Attributes lists name and value indices pairwise per node.
	Attributes [][]int   `json:"attributes"`
	TextValue  *RareData `json:"textValue,omitempty"`
	InputValue *RareData `json:"inputValue,omitempty"`
}

// RareData is a sparse column: Value[i] belongs to node Index[i].
type RareData struct {
	Index []int `json:"index"`
	Value []int `json:"value"`
}

// LayoutTree holds the boxes of the nodes that were laid out.
type LayoutTree struct {
	NodeIndex []int       `json:"nodeIndex"`
	Bounds    [][]float64 `json:"bounds"`
}

// Parse decodes a raw captureSnapshot response.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if len(s.Documents) == 0 {
		return nil, ErrEmptySnapshot
	}
	return &s, nil
}

// String resolves a string table index.
func (s *Snapshot) String(idx int) string {
	if idx < 0 || idx >= len(s.Strings) {
		return ""
	}
	return s.Strings[idx]
}

// URL returns the main document's URL.
func (s *Snapshot) URL() string {
	if len(s.Documents) == 0 {
		return ""
	}
	return s.String(s.Documents[0].DocumentURL)
}

// Title returns the main document's title.
func (s *Snapshot) Title() string {
	if len(s.Documents) == 0 {
		return ""
	}
	return s.String(s.Documents[0].Title)
}

// lookup turns a rare column into a node index keyed map of strings.
func (r *RareData) lookup(s *Snapshot) map[int]string {
	if r == nil {
		return nil
	}
	out := make(map[int]string, len(r.Index))
	for i, node := range r.Index {
		if i < len(r.Value) {
			out[node] = s.String(r.Value[i])
		}
	}
	return out
}

func at(col []int, i int) int {
	if i < len(col) {
		return col[i]
	}
	return -1
}

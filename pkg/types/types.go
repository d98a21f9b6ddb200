package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// PathSeparator joins ancestor titles into a knowledge point path
const PathSeparator = " -> "

// TaxonomyNode is one node of the knowledge point tree returned by the catalog service
type TaxonomyNode struct {
	Title    string         `json:"title,omitempty"`
	ID       string         `json:"id"`
	IsLeaf   bool           `json:"isLeaf,omitempty"`
	Children []TaxonomyNode `json:"children,omitempty"`
}

// UnmarshalJSON decodes a node leniently: ids may arrive as numbers, and
// isLeaf only counts when it is the JSON literal true.
func (n *TaxonomyNode) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid taxonomy node JSON")
	}
	return n.fromResult(gjson.ParseBytes(data))
}

func (n *TaxonomyNode) fromResult(r gjson.Result) error {
	if !r.IsObject() {
		return fmt.Errorf("taxonomy node must be an object, got %s", r.Type)
	}

	n.Title = r.Get("title").String()
	n.ID = r.Get("id").String()
	n.IsLeaf = r.Get("isLeaf").Type == gjson.True
	n.Children = nil

	children := r.Get("children")
	if !children.IsArray() {
		return nil
	}
	for _, c := range children.Array() {
		var child TaxonomyNode
		if err := child.fromResult(c); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// ParseTaxonomy decodes a JSON array of taxonomy nodes
func ParseTaxonomy(data []byte) ([]TaxonomyNode, error) {
	var roots []TaxonomyNode
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	return roots, nil
}

// Problem is a candidate question returned by the search service.
// Raw holds the full record so fields this package does not know about
// survive a decode/encode round trip untouched.
type Problem struct {
	QuestionID      string
	QuestionArticle string
	Raw             json.RawMessage
}

// UnmarshalJSON keeps the raw record and extracts the fields the ranker needs
func (p *Problem) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid problem JSON")
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("problem must be an object, got %s", r.Type)
	}

	p.Raw = append(json.RawMessage(nil), data...)
	p.QuestionID = r.Get("questionId").String()
	p.QuestionArticle = r.Get("questionArticle").String()
	return nil
}

// MarshalJSON emits the original record when one is available
func (p Problem) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		QuestionID      string `json:"questionId"`
		QuestionArticle string `json:"questionArticle"`
	}{p.QuestionID, p.QuestionArticle}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ProblemIDs returns the question ids of the given problems in order
func ProblemIDs(problems []Problem) []string {
	ids := make([]string, len(problems))
	for i, p := range problems {
		ids[i] = p.QuestionID
	}
	return ids
}

// Image is a problem photo ready to be sent to a vision model
type Image struct {
	Path     string
	MimeType string
	Data     []byte
}

// RankResult is the outcome of narrowing a candidate list
type RankResult struct {
	// IDs are the selected question ids
	IDs []string

	// Fallback is true when the model did not produce a valid selection and
	// IDs holds the whole candidate list instead
	Fallback bool

	// Reason explains why the fallback was taken. Nil when Fallback is false.
	Reason error

	// Skipped is true when the candidate list was too short to rank and the
	// model was never called
	Skipped bool
}

package reasoning

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/thoughtgraph/pkg/document"
)

// Format is the document format name reported for reasoning pools.
const Format = "reasoning-pool"

// Top-level keys of a reasoning pool.
const (
	KeyInputs      = "factual_assignment"
	KeyGroundTruth = "ground_truth_function"
	KeyResults     = "results"
	KeyLevels      = "reasoning_path_topological_levels"
)

// Node groups, stored in the "group" attribute.
const (
	GroupInput       = "input"
	GroupGroundTruth = "ground_truth"
	GroupSample      = "sample"
	GroupFinalSample = "final_sample"
)

// GroundTruthSource is the source name of the ground-truth path. Samples are
// named "sample_<id>".
const GroundTruthSource = "ground_truth"

// InputLevel is the relative level of input nodes.
const InputLevel = -1.0

// Importer recognizes reasoning pools for the document loader.
type Importer struct{}

// Format implements document.Importer.
func (Importer) Format() string { return Format }

// Detect implements document.Importer.
func (Importer) Detect(root map[string]any) bool {
	for _, k := range []string{KeyResults, KeyGroundTruth, KeyInputs} {
		if _, ok := root[k]; ok {
			return true
		}
	}
	return false
}

// Import implements document.Importer.
func (Importer) Import(root map[string]any, fields document.Fields) ([]document.Entry, []document.Entry, error) {
	m := merge(root)
	return m.entries(fields.WithDefaults())
}

// =============================================================================
// Parsed paths
// =============================================================================

type step struct {
	id         string
	variable   string
	expression string
	deps       []string
	inputDeps  []string
}

type level struct {
	value float64
	steps []step
}

type path struct {
	source string
	levels []level
}

// maxLevel returns the deepest level value, or 0 for an empty path.
func (p path) maxLevel() float64 {
	var m float64
	for i, l := range p.levels {
		if i == 0 || l.value > m {
			m = l.value
		}
	}
	return m
}

// relative maps a level value into [0, 1] within the path.
func (p path) relative(v float64) float64 {
	top := p.maxLevel()
	if top <= 0 {
		return 0
	}
	return v / top
}

// parsePath decodes a list of [level, [step...]] pairs, skipping malformed parts.
func parsePath(source string, raw any) path {
	p := path{source: source}
	items, _ := raw.([]any)
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		value, ok := number(pair[0])
		if !ok {
			continue
		}
		rawSteps, ok := pair[1].([]any)
		if !ok {
			continue
		}
		l := level{value: value}
		for _, rs := range rawSteps {
			obj, ok := rs.(map[string]any)
			if !ok {
				continue
			}
			id, ok1 := document.Identifier(obj["step_id"])
			variable, ok2 := text(obj["variable"])
			expression, ok3 := text(obj["expression"])
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			l.steps = append(l.steps, step{
				id:         id,
				variable:   variable,
				expression: expression,
				deps:       identifiers(obj["dependencies"]),
				inputDeps:  identifiers(obj["dependencies_input"]),
			})
		}
		p.levels = append(p.levels, l)
	}
	return p
}

// paths returns the ground truth followed by the samples in file order.
func paths(root map[string]any) []path {
	var out []path
	if gt, ok := root[KeyGroundTruth].(map[string]any); ok && len(gt) > 0 {
		out = append(out, parsePath(GroundTruthSource, gt[KeyLevels]))
	}
	results, _ := root[KeyResults].([]any)
	for _, r := range results {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		id := "unknown"
		if v, ok := obj["sample_id"]; ok && v != nil {
			id = display(v)
		}
		out = append(out, parsePath("sample_"+id, obj[KeyLevels]))
	}
	return out
}

// =============================================================================
// Merging
// =============================================================================

type nodeKey struct {
	input      bool
	variable   string
	expression string
}

type mergedNode struct {
	id         string
	key        nodeKey
	value      any
	level      float64
	sources    map[string]bool
	finalStep  bool
}

func (n *mergedNode) group() string {
	switch {
	case n.key.input:
		return GroupInput
	case n.sources[GroundTruthSource]:
		return GroupGroundTruth
	case n.finalStep:
		return GroupFinalSample
	default:
		return GroupSample
	}
}

func (n *mergedNode) sortedSources() []string {
	out := make([]string, 0, len(n.sources))
	for s := range n.sources {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

type edgeKey struct {
	source, target string
	color          string
	width          int
}

type merger struct {
	nodes []*mergedNode
	index map[nodeKey]*mergedNode
	edges []edgeKey
	seen  map[edgeKey]bool
}

func (m *merger) node(key nodeKey, lvl float64) *mergedNode {
	if n, ok := m.index[key]; ok {
		return n
	}
	n := &mergedNode{
		id:      "node_" + strconv.Itoa(len(m.nodes)),
		key:     key,
		level:   lvl,
		sources: make(map[string]bool),
	}
	m.nodes = append(m.nodes, n)
	m.index[key] = n
	return n
}

func (m *merger) edge(e edgeKey) {
	if m.seen[e] {
		return
	}
	m.seen[e] = true
	m.edges = append(m.edges, e)
}

func merge(root map[string]any) *merger {
	m := &merger{index: make(map[nodeKey]*mergedNode), seen: make(map[edgeKey]bool)}

	inputs, _ := root[KeyInputs].(map[string]any)
	inputNames := make([]string, 0, len(inputs))
	for name := range inputs {
		inputNames = append(inputNames, name)
	}
	slices.Sort(inputNames)

	for _, p := range paths(root) {
		for _, name := range inputNames {
			n := m.node(nodeKey{input: true, variable: name, expression: "Input: " + name}, InputLevel)
			n.value = inputs[name]
			n.sources[p.source] = true
		}

		last := p.maxLevel()
		local := make(map[string]*mergedNode)
		for _, l := range p.levels {
			for _, s := range l.steps {
				n := m.node(nodeKey{variable: s.variable, expression: s.expression}, p.relative(l.value))
				n.sources[p.source] = true
				if p.source != GroundTruthSource && l.value == last {
					n.finalStep = true
				}
				local[s.id] = n
			}
		}

		for _, l := range p.levels {
			for _, s := range l.steps {
				target := m.index[nodeKey{variable: s.variable, expression: s.expression}]
				for _, dep := range s.deps {
					source, ok := local[dep]
					if !ok {
						continue
					}
					if source.sources[GroundTruthSource] && target.sources[GroundTruthSource] {
						m.edge(edgeKey{source.id, target.id, "green", 3})
					} else {
						m.edge(edgeKey{source.id, target.id, "red", 1})
					}
				}
				for _, dep := range s.inputDeps {
					source, ok := m.index[nodeKey{input: true, variable: dep, expression: "Input: " + dep}]
					if !ok {
						continue
					}
					m.edge(edgeKey{source.id, target.id, "gray", 1})
				}
			}
		}
	}
	return m
}

func (m *merger) entries(fields document.Fields) ([]document.Entry, []document.Entry, error) {
	nodes := make([]document.Entry, 0, len(m.nodes))
	for _, n := range m.nodes {
		sources := n.sortedSources()
		srcAny := make([]any, len(sources))
		for i, s := range sources {
			srcAny[i] = s
		}

		e := document.Entry{
			"variable":   n.key.variable,
			"expression": n.key.expression,
			"node_type":  "step",
			"shape":      "ellipse",
			"sources":    srcAny,
			"group":      n.group(),
			"color":      color(n.group()),
			"level":      num(n.level),
			"title":      fmt.Sprintf("%s\nSources: %s", n.key.expression, strings.Join(sources, ", ")),
		}
		if n.key.input {
			e["node_type"] = "input"
			e["shape"] = "box"
			e["value"] = n.value
		}
		e[fields.LabelKeys[0]] = n.key.variable
		e[fields.IDKeys[0]] = n.id
		nodes = append(nodes, e)
	}

	edges := make([]document.Entry, 0, len(m.edges))
	for _, k := range m.edges {
		kind := "dependency"
		if k.color == "gray" {
			kind = "input"
		}
		edges = append(edges, document.Entry{
			fields.SourceKeys[0]: k.source,
			fields.TargetKeys[0]: k.target,
			"color":              k.color,
			"width":              json.Number(strconv.Itoa(k.width)),
			"kind":               kind,
		})
	}
	return nodes, edges, nil
}

func color(group string) string {
	switch group {
	case GroupInput:
		return "lightblue"
	case GroupGroundTruth:
		return "lightgreen"
	case GroupFinalSample:
		return "orange"
	default:
		return "red"
	}
}

// =============================================================================
// Value helpers
// =============================================================================

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func num(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// text accepts strings and other scalars, which older converters emitted for
// numeric variables.
func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number, float64, bool, int:
		return display(t), true
	default:
		return "", false
	}
}

func display(v any) string {
	if s, ok := document.Identifier(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

func identifiers(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := document.Identifier(item); ok {
			out = append(out, s)
		}
	}
	return out
}

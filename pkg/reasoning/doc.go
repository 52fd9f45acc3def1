// Package reasoning imports reasoning-pool files into graph documents.
//
// A reasoning pool records one ground-truth function and any number of sampled
// functions, each decomposed into steps grouped by topological level:
//
//	{
//	  "factual_assignment": {"price": 3, "count": 4},
//	  "ground_truth_function": {
//	    "function_str": "...",
//	    "reasoning_path_topological_levels": [
//	      [0, [{"step_id": 1, "variable": "total", "expression": "price * count",
//	            "dependencies": [], "dependencies_input": ["price", "count"]}]]
//	    ]
//	  },
//	  "results": [{"sample_id": 0, "reasoning_path_topological_levels": [...]}]
//	}
//
// All paths are merged into one graph. Steps that compute the same variable
// with the same expression become one node, so agreement between samples and
// the ground truth is visible as shared nodes. Every factual-assignment key
// becomes an input node.
//
// # Styling
//
// Node and edge attributes carry the styling the viewer and the DOT renderer
// use:
//
//   - input nodes: box, lightblue, group "input"
//   - nodes present in the ground truth: lightgreen, group "ground_truth"
//   - sample nodes on the last level of a sample path: orange, group "final_sample"
//   - other sample nodes: red, group "sample"
//   - edges between ground-truth nodes: green, width 3
//   - other step dependencies: red, width 1
//   - input dependencies: gray, width 1
//
// Malformed levels and steps are skipped rather than rejected; a pool written
// by an older converter still renders whatever it can.
package reasoning

// Package diagram defines the graph descriptor consumed by the layout and
// routing engine.
//
// A descriptor is a list of nodes, each assigned to one of four ordered
// layers ([LayerApplication], [LayerGateway], [LayerMiddleware],
// [LayerBackend]), plus an explicit list of directed edges. Node order inside
// a layer is the order of appearance; the engine never reorders nodes.
//
// # Serialization
//
// [Document] is the wire format. It is read from JSON, YAML or TOML by
// [ReadFile] (format chosen by extension) or [Read]:
//
//	title: TMA
//	subtitle: AI Experience Hub (AEH)
//	nodes:
//	  - id: apigee
//	    label: Enterprise API Gateway
//	    sublabel: ApiGee
//	    url: https://apigee.example.com
//	    layer: gateway
//	edges:
//	  - from: mytma
//	    to: apigee
//
// # Validation
//
// [New] turns a Document into an immutable [Graph] and fails fast on
// descriptor defects: empty or malformed ids ([ErrInvalidNodeID]), duplicate
// ids ([ErrDuplicateNodeID]), missing or unknown layers ([ErrUnknownLayer])
// and empty labels ([ErrEmptyLabel]). Edges whose endpoints are not declared
// are accepted and reported by [Graph.DanglingEdges]; the router omits them.
//
// [Default] returns the built-in portal diagram.
package diagram

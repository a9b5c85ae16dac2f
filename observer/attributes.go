package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for parsing observability spans and metrics.
var (
	AttrProvider   = attribute.Key("embedding.provider")
	AttrDimensions = attribute.Key("embedding.dimensions")
	AttrTextCount  = attribute.Key("embedding.text_count")

	AttrTransformName = attribute.Key("pipeline.transform")
	AttrNodesIn       = attribute.Key("pipeline.nodes_in")
	AttrNodesOut      = attribute.Key("pipeline.nodes_out")

	AttrFilename = attribute.Key("document.filename")
	AttrNumPages = attribute.Key("document.num_pages")
)

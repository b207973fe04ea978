package render

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("currentadda.services.render")

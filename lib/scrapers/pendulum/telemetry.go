package pendulum

import (
	"currentadda-pipeline/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("currentadda.lib.scrapers.pendulum")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

package telegram

import (
	"currentadda-pipeline/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("currentadda.services.telegram")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

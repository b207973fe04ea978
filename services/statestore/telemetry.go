package statestore

import (
	"currentadda-pipeline/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("currentadda.services.statestore")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

package rules

import (
	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// registerGlobals adds the web-platform globals every script sees.
func registerGlobals(b *engine.RegistryBuilder) {
	b.GlobalAlias("window", "self", "globalThis", "content")

	b.Flag(engine.Path{"eval"}, m.SeverityFailure, "dynamic-eval", "eval is disallowed")
	b.Flag(engine.Path{"Function"}, m.SeverityFailure, "dynamic-function", "the Function constructor is disallowed")

	b.Emulate(engine.Path{"setTimeout"}, "timer with string callback", stringTimer)
	b.Emulate(engine.Path{"setInterval"}, "interval with string callback", stringTimer)

	b.Emulate(xhrPath, "XMLHttpRequest constructor", func(call *engine.Call) engine.Value {
		return newXHR()
	})
	b.Emulate(xhrPath.Append("open"), "XMLHttpRequest.open over http", xhrOpen)
	b.PassThrough(xhrPath.Append(engine.AnySegment), "XMLHttpRequest methods")
}

// stringTimer warns when a timer is handed code as a string, which the
// browser evaluates like eval.
func stringTimer(call *engine.Call) engine.Value {
	if p, ok := call.Arg(0).(engine.Primitive); ok && p.Kind == engine.KindString {
		call.Record(m.SeverityWarning, "string-timer", "timer callback passed as a string is evaluated as code")
	}

	return engine.Wildcard{Path: call.Path.Append(engine.CallSegment)}
}

package rules

import (
	"strings"

	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// Host paths shared by the XPCOM and web-platform rules.
var (
	componentsPath = engine.Path{"Components"}
	interfacesPath = componentsPath.Append("interfaces")
	classesPath    = componentsPath.Append("classes")
	utilsPath      = componentsPath.Append("utils")
	xhrIIDPath     = interfacesPath.Append("nsIXMLHttpRequest")
	xhrPath        = engine.Path{"XMLHttpRequest"}
)

var xhrMethods = []string{
	"open",
	"send",
	"abort",
	"setRequestHeader",
	"getResponseHeader",
	"getAllResponseHeaders",
	"overrideMimeType",
	"addEventListener",
	"removeEventListener",
}

// registerXPCOM adds the Components namespace and its instance factories.
func registerXPCOM(b *engine.RegistryBuilder) {
	b.Namespace("Components", "interfaces", "classes", "utils", "results", "manager")

	b.Flag(utilsPath.Append("evalInSandbox"), m.SeverityFailure, "sandbox-eval",
		"dynamic evaluation in sandbox is disallowed")
	b.PassThrough(utilsPath.Append(engine.AnySegment), "XPCOM utility functions")

	b.Emulate(classesPath.Append(engine.AnySegment, "createInstance"), "XPCOM instance factory", createInstance)
	b.Emulate(classesPath.Append(engine.AnySegment, "getService"), "XPCOM service lookup", createInstance)
	b.PassThrough(classesPath.Append(engine.AnySegment), "XPCOM contract identifiers")
	b.PassThrough(interfacesPath.Append(engine.AnySegment), "XPCOM interface identifiers")
}

// createInstance resolves an XPCOM instance by its interface argument. The
// nsIXMLHttpRequest interface yields the web-platform XHR object; anything
// else yields a wildcard tagged with the requested interface.
func createInstance(call *engine.Call) engine.Value {
	iface, ok := call.Arg(0).(engine.Wildcard)
	if !ok || !iface.Path.HasPrefix(interfacesPath) || len(iface.Path) != len(interfacesPath)+1 {
		return engine.Wildcard{Path: call.Path.Append(engine.CallSegment)}
	}

	if iface.Path.Equal(xhrIIDPath) {
		return newXHR()
	}

	return engine.Wildcard{Path: iface.Path.Append("<instance>")}
}

// newXHR builds an XMLHttpRequest object. Its methods resolve through the
// registry under XMLHttpRequest.*, and the `value` payload exposes the same
// methods for code that unwraps XPCOM wrappers.
func newXHR() *engine.Object {
	methods := make([]engine.Prop, 0, len(xhrMethods))
	for _, name := range xhrMethods {
		methods = append(methods, engine.Prop{Name: name, Value: engine.NewNative(xhrPath.Append(name))})
	}

	props := append([]engine.Prop(nil), methods...)
	props = append(props, engine.Prop{Name: "value", Value: engine.NewObject(methods...)})

	return engine.NewObject(props...)
}

// xhrOpen warns about requests that leave the browser unencrypted.
func xhrOpen(call *engine.Call) engine.Value {
	if url, ok := call.Arg(1).(engine.Primitive); ok && url.Kind == engine.KindString {
		if strings.HasPrefix(strings.ToLower(url.Literal), "http://") {
			call.Record(m.SeverityWarning, "insecure-request", "request sent over unencrypted http")
		}
	}

	return engine.Undefined()
}

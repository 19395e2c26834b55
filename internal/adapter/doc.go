// Package adapter translates a tool's resolved component set into the
// artifacts that tool needs on disk.
//
// An adapter never touches the filesystem beyond reading component sources.
// Materialize returns a Plan: desired links, generated files and fragment
// entries inside aggregate documents, plus the scan roots the synchronization
// engine owns and warnings for components the tool cannot host.
//
// Event scripts follow the canonical event contract. Native events register
// the script under the host event name. Bridged events get one generated
// wrapper per (tool, event) that normalises the host's calling convention and
// re-dispatches the payload to every bound script. Unsupported events produce
// a warning and nothing else.
package adapter

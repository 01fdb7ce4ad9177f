// Package core runs the file transform pipeline and owns the state that
// outlives a single request.
//
// The pipeline itself is stateless. [Process] takes the raw bytes of one
// uploaded file plus a [FileOptions] value and runs parse, summarize,
// clean, project, rename, correlate and chart preparation in that order,
// returning a [FileResult]. Export runs on demand through
// [FileResult.Export]. The web layer calls Process on every render, so the
// options object is the only carrier of user choices.
//
// # Workspaces
//
// A [WorkspaceStore] keeps uploaded bytes in memory under a random ID so a
// browser can re-render without uploading again. Workspaces idle longer
// than the configured TTL are removed by [WorkspaceStore.StartJanitor].
//
// # Resource limits
//
// [RunLimiter] caps concurrent pipeline runs. File size and file count are
// enforced when bytes enter a workspace.
//
// [NewReport] flattens a finished run into a value the JSON API and the
// CLI can encode.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core

// Package job implements the per-file state machine that downloads, decodes,
// and validates one audio file on the shared scheduler.
//
// A Job moves through queued, downloading (remote sources only), and
// analyzing into one of the terminal verdicts passed, warnings, failed, or
// error. Cancelled runs settle back in queued. Dispose is terminal from any
// state. A single mutex guards the status, progress, handle, report, and
// cache tuple; every mutation is announced to the sink asynchronously and in
// order.
package job

// Package httpapi exposes the knowledge base over a small JSON HTTP API
// built on echo.
//
// Routes:
//
//	POST /upload  multipart "file"       -> {message}
//	POST /ask     {query, top_k}          -> {response, source_chunks}
//	POST /chat    {message}               -> {response, route}
//	GET  /stats                           -> knowledge base summary
//	GET  /health                          -> {status}
//
// Failures are returned as {error} with a status derived from the error kind.
package httpapi

// Package server serves a music directory to the playback surface and to other clients.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Library Handler
//
// [LibraryHandler] answers GET /songs/summary in the same envelope the remote catalog uses, so a
// local directory can stand in for the catalog host. Files under the music directory are served
// from /songs/, which is where catalog media, cover and lyric paths point.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

// Package services implements the HTTP clients for the lyrics backend.
//
// # Transport
//
// [APIService] performs raw and JSON requests against one base URL. Requests pass through an optional token bucket
// ([golang.org/x/time/rate]) and, when OAuth client credentials are configured, an [oauth2] client that attaches
// bearer tokens. A response fails when its status is not 2xx or its JSON body has "status": "error"; the error
// message is the body's "message" field or "Request failed with <status>".
//
// # Endpoint Groups
//
//   - [CatalogService]: GET /songs/summary
//   - [BackupService]: POST /backup_client_state, POST /anchor_backup, GET /get_anchor_backup,
//     GET /download_client_backup, GET /download_anchor_backup
//   - [AuthorityService]: GET /amll/state
//   - [LyricsService]: POST /convert_ttml_by_path
//
// [Backend] wires all of them onto one [APIService].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : the backend rejected the call, see [APIError]
//   - [shared.ErrServiceUnavailable] : the backend could not be reached
//   - [shared.ErrMissingCredentials] : anchor account or password missing
//   - [shared.ErrMissingArgument] : required id or path missing
package services

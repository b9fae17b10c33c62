/*
Package req normalizes incoming HTTP requests.

A [Parser] reads an *http.Request into a [Request]:
the method, path, query, headers and cookies,
the raw body capped at a configured size,
form fields of URL-encoded and multipart bodies,
and uploaded files, which [Uploads] stages on disk under random names.
Handlers get the raw body as is; decoding it is up to them.

Staged files are not removed once the request completes.
Run [Uploads.Run] to sweep out old ones periodically.
*/
package req

// Package log builds slog loggers that redact sensitive values.
//
// SecureHandler wraps any slog.Handler. Before a record is written it masks:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - string values that look like secrets (JWTs, bearer or basic
//     credentials, long API keys, PEM private keys)
//   - sensitive headers inside http.Header values
//   - userinfo passwords and sensitive query parameters (token, key, sig,
//     signature, session, ...) in URL-valued attributes and error messages
//
// Audits are often run against staging sites with cookies, basic auth or
// signed URLs, and those must never reach shared logs.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log

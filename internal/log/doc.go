// Package log builds the slog loggers used by nnmdl.
//
// Every logger returned by NewSecureLogger passes its records through a
// SecureHandler, which masks account passwords, cookies and the phpBB
// session id before anything is written:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("login", "user", acc.Username, "password", acc.Password)
//	// level=INFO msg=login user=alice password=***REDACTED***
//
// Session ids appended to tracker URLs are cut out of string values and
// error messages as well, so request URLs can be logged as they are.
package log

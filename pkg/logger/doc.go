// Package logger builds the structured slog logger used by the monitor: text
// output in development, JSON in production, optionally copied to a log file
// that the email report can attach.
package logger

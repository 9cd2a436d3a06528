package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService       = "service"
	FieldChannel       = "channel"
	FieldKey           = "key"
	FieldPartition     = "partition"
	FieldOffset        = "offset"
	FieldEventID       = "event_id"
	FieldEventKind     = "event_kind"
	FieldBorrowerID    = "borrower_id"
	FieldApplicationID = "application_id"
	FieldDocumentID    = "document_id"
	FieldOutcome       = "outcome"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatus        = "status"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Channel returns a slog attribute for a broker channel (topic/subject).
func Channel(name string) slog.Attr {
	return slog.String(FieldChannel, name)
}

// Key returns a slog attribute for a message partition key.
func Key(key string) slog.Attr {
	return slog.String(FieldKey, key)
}

// Partition returns a slog attribute for a broker partition.
func Partition(p int) slog.Attr {
	return slog.Int(FieldPartition, p)
}

// Offset returns a slog attribute for a partition offset or stream sequence.
func Offset(o int64) slog.Attr {
	return slog.Int64(FieldOffset, o)
}

// EventID returns a slog attribute for an event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// EventKind returns a slog attribute for an envelope kind.
func EventKind(kind string) slog.Attr {
	return slog.String(FieldEventKind, kind)
}

// BorrowerID returns a slog attribute for a borrower ID.
func BorrowerID(id int64) slog.Attr {
	return slog.Int64(FieldBorrowerID, id)
}

// ApplicationID returns a slog attribute for a loan application ID.
func ApplicationID(id int64) slog.Attr {
	return slog.Int64(FieldApplicationID, id)
}

// DocumentID returns a slog attribute for a document ID.
func DocumentID(id int64) slog.Attr {
	return slog.Int64(FieldDocumentID, id)
}

// Outcome returns a slog attribute for a message processing outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(FieldOutcome, outcome)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

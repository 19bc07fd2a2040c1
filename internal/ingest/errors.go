package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies why an ingestion attempt stopped.
type Kind int

const (
	DuplicateFile Kind = iota + 1
	FileTooLarge
	UnsupportedFileType
	UploadMoveFailed
	ParseFailed
	PersistFailed
)

func (k Kind) String() string {
	switch k {
	case DuplicateFile:
		return "duplicate_file"
	case FileTooLarge:
		return "file_too_large"
	case UnsupportedFileType:
		return "unsupported_file_type"
	case UploadMoveFailed:
		return "upload_move_failed"
	case ParseFailed:
		return "parse_failed"
	case PersistFailed:
		return "persist_failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsValidation reports whether k rejects the upload before any side effect.
func (k Kind) IsValidation() bool {
	return k == DuplicateFile || k == FileTooLarge || k == UnsupportedFileType
}

// Fixed user-visible messages. Game clients show these verbatim.
const (
	MsgDuplicateFile      = "Sorry, this file already exists."
	MsgFileTooLarge       = "Sorry, your file is too large."
	MsgWrongGameType      = "Sorry, only KeeperRL files are allowed."
	MsgWrongSiteType      = "Sorry, only KeeperRL retired site files are allowed."
	MsgUploadFailed       = "Sorry, there was an error uploading your file."
	MsgParseSave          = "Error parsing save file"
	MsgParseHighscoreFile = "Error parsing highscore file"
)

// Error carries the kind, the message shown to the client and the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

func persistError(cause error) *Error {
	return newError(PersistFailed, "Error: "+cause.Error(), cause)
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return 0
}

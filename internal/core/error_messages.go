package core

// error_messages.go maps pipeline errors to user-facing messages with codes
// for support reference.
//
// # Error Codes Reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unreadable: The file is empty or could not be read
//	          Action: Check the file opens in a spreadsheet or word processor
//	FILE002 - No table data: No rows were found in the file
//	          Action: Make sure the first sheet or first table has a header row and data
//	FILE003 - File too large: File exceeds the maximum size limit
//	          Action: Split the list into smaller files
//	FILE004 - No file: No file was selected
//	          Action: Choose a spreadsheet or .docx file
//
// # Header and Mapping Errors (HDR001, MAP001)
//
//	HDR001 - No columns: Could not detect any columns in the file
//	MAP001 - Mapping failed: The selected columns could not be applied
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Import in progress: Another file is still being read
//	SES002 - Nothing to map: No import is waiting for column mapping
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many imports in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Bad request: The request body could not be read
//	REQ002 - Bad date: The date parameter is not YYYY-MM-DD
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Save failed: The list could not be saved
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Sentinel errors are matched with errors.Is before any text pattern is
// tried. Patterns are matched case-insensitively with strings.Contains and
// the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{
		err: ErrUnreadableFile,
		msg: UserMessage{
			Message: "The file appears to be empty or could not be read.",
			Action:  "Check that the file opens in a spreadsheet or word processor",
			Code:    "FILE001",
		},
	},
	{
		err: ErrNoTableData,
		msg: UserMessage{
			Message: "The file appears to be empty or contains no readable table data.",
			Action:  "Make sure the first sheet or first table has a header row and data rows",
			Code:    "FILE002",
		},
	},
	{
		err: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the list into smaller files",
			Code:    "FILE003",
		},
	},
	{
		err: ErrNoColumns,
		msg: UserMessage{
			Message: "Could not detect any columns in the file.",
			Action:  "Make sure the first row contains column names",
			Code:    "HDR001",
		},
	},
	{
		err: ErrInvalidMapping,
		msg: UserMessage{
			Message: "Failed to map data",
			Action:  "Choose a name column and a phone column and try again",
			Code:    "MAP001",
		},
	},
	{
		err: ErrImportInProgress,
		msg: UserMessage{
			Message: "Another file is still being imported",
			Action:  "Wait for the current import to finish",
			Code:    "SES001",
		},
	},
	{
		err: ErrNoMappingPending,
		msg: UserMessage{
			Message: "There is no import waiting for column mapping",
			Action:  "Choose a file to import first",
			Code:    "SES002",
		},
	},
	{
		err: ErrTooManyImports,
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		err: ErrInvalidRequest,
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Reload the page and try again",
			Code:    "REQ001",
		},
	},
	{
		err: ErrInvalidDate,
		msg: UserMessage{
			Message: "The date is not valid",
			Action:  "Use the YYYY-MM-DD format",
			Code:    "REQ002",
		},
	},
	{
		err: ErrPersistence,
		msg: UserMessage{
			Message: "The list could not be saved",
			Action:  "Your records are still available; try saving again later",
			Code:    "STO001",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that do not wrap a sentinel.
var errorPatterns = []errorPattern{
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a spreadsheet or .docx file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the list into smaller files",
			Code:    "FILE003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Mapping failures keep the underlying cause so the user sees what went
// wrong, e.g. "Failed to map data: name column is required".
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			msg := sm.msg
			if sm.err == ErrInvalidMapping {
				if cause := mappingCause(err); cause != "" {
					msg.Message += ": " + cause
				}
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// mappingCause returns the text after the "failed to map data: " prefix.
func mappingCause(err error) string {
	s := err.Error()
	prefix := ErrInvalidMapping.Error() + ": "
	if i := strings.Index(s, prefix); i >= 0 {
		return s[i+len(prefix):]
	}
	return ""
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

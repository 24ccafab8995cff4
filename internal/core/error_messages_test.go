package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unreadable file",
			err:         fmt.Errorf("%w: zip: not a valid zip file", ErrUnreadableFile),
			wantCode:    "FILE001",
			wantMessage: "The file appears to be empty or could not be read.",
		},
		{
			name:        "no table data",
			err:         ErrNoTableData,
			wantCode:    "FILE002",
			wantMessage: "The file appears to be empty or contains no readable table data.",
		},
		{
			name:        "file too large sentinel",
			err:         fmt.Errorf("read upload: %w", ErrFileTooLarge),
			wantCode:    "FILE003",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "request body too large text",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE003",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "no file",
			err:         errors.New("no file provided"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "no columns",
			err:         ErrNoColumns,
			wantCode:    "HDR001",
			wantMessage: "Could not detect any columns in the file.",
		},
		{
			name:        "mapping failure keeps cause",
			err:         fmt.Errorf("%w: name column is required", ErrInvalidMapping),
			wantCode:    "MAP001",
			wantMessage: "Failed to map data: name column is required",
		},
		{
			name:        "bare mapping failure",
			err:         ErrInvalidMapping,
			wantCode:    "MAP001",
			wantMessage: "Failed to map data",
		},
		{
			name:        "import in progress",
			err:         ErrImportInProgress,
			wantCode:    "SES001",
			wantMessage: "Another file is still being imported",
		},
		{
			name:        "no mapping pending",
			err:         ErrNoMappingPending,
			wantCode:    "SES002",
			wantMessage: "There is no import waiting for column mapping",
		},
		{
			name:        "decode slots exhausted",
			err:         fmt.Errorf("analyze: %w", ErrTooManyImports),
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "bad request body",
			err:         fmt.Errorf("%w: unexpected EOF", ErrInvalidRequest),
			wantCode:    "REQ001",
			wantMessage: "The request could not be understood",
		},
		{
			name:        "bad date",
			err:         fmt.Errorf("%w: %q", ErrInvalidDate, "12/25"),
			wantCode:    "REQ002",
			wantMessage: "The date is not valid",
		},
		{
			name:        "persistence",
			err:         fmt.Errorf("%w: redis: connection refused", ErrPersistence),
			wantCode:    "STO001",
			wantMessage: "The list could not be saved",
		},
		{
			name:        "cancelled",
			err:         context.Canceled,
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "timeout",
			err:         fmt.Errorf("decode: %w", context.DeadlineExceeded),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT hit"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoColumns)

	expected := "Could not detect any columns in the file. (Code: HDR001). Make sure the first row contains column names"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrNoTableData,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: bad zip", ErrUnreadableFile)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The file appears to be empty or could not be read." {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
		if !errors.Is(userErr, ErrUnreadableFile) {
			t.Error("UserError should still match the sentinel")
		}
	})
}

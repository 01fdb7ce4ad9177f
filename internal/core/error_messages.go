package core

// error_messages.go maps technical errors to messages a user can act on.
//
// Each message carries a code the user can quote to support. Codes are
// grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Matches: ErrFileTooLarge, "request body too large"
//	FILE002 - Invalid CSV: File could not be read as delimited text
//	          Matches: table.ErrInvalidCSV
//	FILE003 - Invalid workbook: File is not a readable .xlsx workbook
//	          Matches: table.ErrInvalidWorkbook
//	FILE004 - No file: No file was selected
//	          Matches: ErrNoFile
//	FILE005 - Empty file: The file has no header row
//	          Matches: table.ErrEmptyFile
//	FILE006 - Unsupported type: Only .csv and .xlsx are accepted, or the
//	          export format is unknown
//	          Matches: table.ErrUnsupportedFormat, table.ErrUnknownFormat
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: A selected or renamed column does not exist
//	         Matches: table.ErrUnknownColumn
//	COL002 - Duplicate selection: A column was selected twice
//	         Matches: table.ErrDuplicateColumn
//	COL003 - Incomplete rename: A column has no rename entry
//	         Matches: table.ErrIncompleteRename
//	COL004 - Name collision: Two columns were renamed to the same name
//	         Matches: table.ErrDuplicateTargetName
//	COL005 - Nothing to chart: No numeric column has a plottable value
//	         Matches: chart.ErrNoData
//
// # Workspace Errors (WS001-WS099)
//
//	WS001 - Workspace expired: The workspace is gone
//	        Matches: ErrWorkspaceNotFound
//	WS002 - File missing: The file was removed from the workspace
//	        Matches: ErrFileNotFound
//	WS003 - Too many files: The workspace is full
//	        Matches: ErrTooManyFiles
//
// # System Errors (SYS001-SYS099)
//
//	SYS001 - Busy: Every pipeline slot is taken
//	         Matches: ErrBusy
//	SYS002 - Cancelled: The request was cancelled
//	         Matches: context.Canceled
//	SYS003 - Timeout: The request timed out
//	         Matches: context.DeadlineExceeded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Matches: ErrRateLimited
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Sentinels are matched with errors.Is, so file and column names inside a
// wrapped error never pick the code. Only when no sentinel matches are the
// text patterns tried, case-insensitively with strings.Contains. The first
// match wins in both passes.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/sweeper/internal/chart"
	"github.com/JonMunkholm/sweeper/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

// errorPattern maps errors matching target, or failing that containing
// pattern, to msg. pattern is only for errors from outside this module,
// which carry no sentinel.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file or remove unused columns before uploading",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Upload exceeds the size limit",
			Action:  "Upload fewer or smaller files at a time",
			Code:    "FILE001",
		},
	},
	{
		target: table.ErrInvalidCSV,
		msg: UserMessage{
			Message: "File could not be read as CSV",
			Action:  "Check that every row has no more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		target: table.ErrInvalidWorkbook,
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Re-save the file as .xlsx and upload it again",
			Code:    "FILE003",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose one or more .csv or .xlsx files",
			Code:    "FILE004",
		},
	},
	{
		target: table.ErrEmptyFile,
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		target: table.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Only .csv and .xlsx files are accepted",
			Code:    "FILE006",
		},
	},
	{
		target: table.ErrUnknownFormat,
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Choose CSV or Excel",
			Code:    "FILE006",
		},
	},

	// Column errors
	{
		target: table.ErrUnknownColumn,
		msg: UserMessage{
			Message: "A selected column does not exist in this file",
			Action:  "Reload the page to refresh the column list",
			Code:    "COL001",
		},
	},
	{
		target: table.ErrDuplicateColumn,
		msg: UserMessage{
			Message: "A column was selected more than once",
			Action:  "Select each column only once",
			Code:    "COL002",
		},
	},
	{
		target: table.ErrIncompleteRename,
		msg: UserMessage{
			Message: "A column is missing its new name",
			Action:  "Leave a rename box empty to keep the current name",
			Code:    "COL003",
		},
	},
	{
		target: table.ErrDuplicateTargetName,
		msg: UserMessage{
			Message: "Two columns would end up with the same name",
			Action:  "Give each column a distinct name",
			Code:    "COL004",
		},
	},
	{
		target: chart.ErrNoData,
		msg: UserMessage{
			Message: "Nothing to chart",
			Action:  "Keep at least two numeric columns with values and enable the chart",
			Code:    "COL005",
		},
	},

	// Workspace errors
	{
		target: ErrWorkspaceNotFound,
		msg: UserMessage{
			Message: "This workspace has expired",
			Action:  "Upload your files again",
			Code:    "WS001",
		},
	},
	{
		target: ErrFileNotFound,
		msg: UserMessage{
			Message: "The file is no longer in this workspace",
			Action:  "Upload it again",
			Code:    "WS002",
		},
	},
	{
		target: ErrTooManyFiles,
		msg: UserMessage{
			Message: "The workspace already holds the maximum number of files",
			Action:  "Remove a file before adding another",
			Code:    "WS003",
		},
	},

	// System errors
	{
		target: ErrBusy,
		msg: UserMessage{
			Message: "The server is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "SYS001",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SYS002",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or fewer files at once",
			Code:    "SYS003",
		},
	},

	// Rate limiting
	{
		target: ErrRateLimited,
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Unmatched errors get ERR000.
//
// Example:
//
//	_, err := table.Project(t, []string{"nope"})
//	msg := MapError(err)
//	// msg.Code == "COL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

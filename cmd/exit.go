package cmd

import "github.com/JakeFAU/page-archiver/internal/archive"

// Process exit codes, one per error kind.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitInvalidURL      = 2
	ExitCorruptRegistry = 3
	ExitFetchTimeout    = 4
	ExitNavigation      = 5
	ExitBrowserCrash    = 6
	ExitWriteFailure    = 7
	ExitCommitFailure   = 8
	ExitCanceled        = 130
)

var exitCodes = map[archive.Kind]int{
	archive.KindNone:            ExitOK,
	archive.KindInvalidURL:      ExitInvalidURL,
	archive.KindCorruptRegistry: ExitCorruptRegistry,
	archive.KindFetchTimeout:    ExitFetchTimeout,
	archive.KindNavigationError: ExitNavigation,
	archive.KindBrowserCrash:    ExitBrowserCrash,
	archive.KindWriteFailure:    ExitWriteFailure,
	archive.KindCommitFailure:   ExitCommitFailure,
	archive.KindCanceled:        ExitCanceled,
}

// ExitCode maps err to the process exit code for its kind.
func ExitCode(err error) int {
	if code, ok := exitCodes[archive.KindOf(err)]; ok {
		return code
	}
	return ExitFailure
}

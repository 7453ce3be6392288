package archive

import "errors"

// Kind names an error category reported to the invoking layer.
type Kind string

// Error kinds surfaced by a run.
const (
	KindNone            Kind = ""
	KindInvalidURL      Kind = "InvalidURL"
	KindCorruptRegistry Kind = "CorruptRegistry"
	KindFetchTimeout    Kind = "FetchTimeout"
	KindNavigationError Kind = "NavigationError"
	KindBrowserCrash    Kind = "BrowserCrash"
	KindWriteFailure    Kind = "WriteFailure"
	KindCommitFailure   Kind = "CommitFailure"
	KindCanceled        Kind = "Canceled"
	KindUnknown         Kind = "Unknown"
)

// Sentinel errors, one per Kind. Implementations wrap these with %w.
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrCorruptRegistry = errors.New("corrupt registry")
	ErrFetchTimeout    = errors.New("fetch timeout")
	ErrNavigation      = errors.New("navigation error")
	ErrBrowserCrash    = errors.New("browser crash")
	ErrWriteFailure    = errors.New("write failure")
	ErrCommitFailure   = errors.New("commit failure")
	ErrCanceled        = errors.New("run canceled")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidURL, KindInvalidURL},
	{ErrCorruptRegistry, KindCorruptRegistry},
	{ErrFetchTimeout, KindFetchTimeout},
	{ErrNavigation, KindNavigationError},
	{ErrBrowserCrash, KindBrowserCrash},
	{ErrWriteFailure, KindWriteFailure},
	{ErrCommitFailure, KindCommitFailure},
	{ErrCanceled, KindCanceled},
}

// KindOf returns the Kind of the first sentinel found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

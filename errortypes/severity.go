package errortypes

// Severity represents the severity level of a bid processing error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal marks an error which cost the publisher a bid.
	SeverityFatal

	// SeverityWarning marks invalid or ambiguous request data which was ignored while the
	// dspx request was still sent.
	SeverityWarning
)

// Errors which don't carry a severity are treated as fatal.
func severityOf(err error) Severity {
	if s, ok := err.(Coder); ok {
		return s.Severity()
	}
	return SeverityFatal
}

// IsWarning returns true if an error is labeled with a Severity of SeverityWarning.
func IsWarning(err error) bool {
	return severityOf(err) == SeverityWarning
}

// FatalOnly returns a new error list with only the fatal severity errors.
func FatalOnly(errs []error) []error {
	return filterBySeverity(errs, SeverityFatal)
}

// WarningOnly returns a new error list with only the warning severity errors.
func WarningOnly(errs []error) []error {
	return filterBySeverity(errs, SeverityWarning)
}

func filterBySeverity(errs []error, severity Severity) []error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if severityOf(err) == severity {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

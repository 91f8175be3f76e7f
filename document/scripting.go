package document

import "github.com/wudi/pdfstream/scripting"

// validateScript checks document-level JavaScript before it is embedded.
func validateScript(name, source string) error {
	return scripting.Validate(name, source)
}

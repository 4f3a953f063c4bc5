package errors

import "sort"

// Template is the registered text for a code.
type Template struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://pageroutes.dev/docs/errors/"

var registry = map[string]Template{
	// Route compilation (E100-E109)

	"E100": {
		Category: CategoryCompile,
		Message:  "Malformed marker segment",
		Detail:   "A path segment starts with the marker but is not \"$\", \"$name\" or \"$[name]\".",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryCompile,
		Message:  "Ambiguous route node",
		Detail:   "Two bindings resolve to the same node, or one path is both a page and a directory.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryCompile,
		Message:  "Invalid binding path",
		Detail:   "The binding path is outside the root prefix, has an unsupported extension, or contains an empty segment.",
		DocURL:   docBase + "E102",
	},

	// Deferred loading (E110-E119)

	"E110": {
		Category: CategoryRuntime,
		Message:  "Deferred load failed",
		Detail:   "A page or layout loader returned an error. Only the owning node is affected.",
		DocURL:   docBase + "E110",
	},

	// Configuration (E120-E129)

	"E120": {
		Category: CategoryConfig,
		Message:  "Config file error",
		Detail:   "pageroutes.json could not be read, parsed or written.",
		DocURL:   docBase + "E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No pageroutes.json was found in this directory or any parent.",
		DocURL:   docBase + "E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A value in pageroutes.json is out of range or malformed.",
		DocURL:   docBase + "E122",
	},

	// CLI (E130-E139)

	"E130": {
		Category: CategoryCLI,
		Message:  "Manifest error",
		Detail:   "The route manifest could not be read or parsed.",
		DocURL:   docBase + "E130",
	},
	"E131": {
		Category: CategoryCLI,
		Message:  "Unknown loader reference",
		Detail:   "A manifest ref uses a scheme with no registered loader.",
		DocURL:   docBase + "E131",
	},
	"E132": {
		Category: CategoryCLI,
		Message:  "Bundle not found",
		Detail:   "A bundle named by the manifest does not exist in its source.",
		DocURL:   docBase + "E132",
	},
}

// Codes returns every registered code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

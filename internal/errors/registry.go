package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (R001-R005)
	// ============================================

	"R001": {
		Category: CategoryRouting,
		Message:  "Route not found",
		Detail:   "No route pattern matches the requested path. Paths are compared after trailing slashes and dot segments are removed.",
		DocURL:   "https://eventroutes.dev/docs/errors/R001",
	},
	"R002": {
		Category: CategoryRouting,
		Message:  "Missing route parameter",
		Detail:   "The route has a variable segment but no value was supplied for it.",
		DocURL:   "https://eventroutes.dev/docs/errors/R002",
	},
	"R003": {
		Category: CategoryRouting,
		Message:  "Unknown route name",
		Detail:   "No route with this name is registered in the table.",
		DocURL:   "https://eventroutes.dev/docs/errors/R003",
	},
	"R004": {
		Category: CategoryRouting,
		Message:  "Invalid route parameter",
		Detail:   "The parameter value does not satisfy the type declared in the pattern (e.g. :id:int).",
		DocURL:   "https://eventroutes.dev/docs/errors/R004",
	},
	"R005": {
		Category: CategoryRouting,
		Message:  "Invalid path",
		Detail:   "The path is malformed: it is not root-relative, or contains a backslash, a NUL byte, a bad percent escape or a '..' above root.",
		DocURL:   "https://eventroutes.dev/docs/errors/R005",
	},

	// ============================================
	// Navigation Errors (R006-R010)
	// ============================================

	"R006": {
		Category: CategoryNavigation,
		Message:  "No history entry",
		Detail:   "There is no history entry in that direction.",
		DocURL:   "https://eventroutes.dev/docs/errors/R006",
	},
	"R007": {
		Category: CategoryNavigation,
		Message:  "Too many redirects",
		Detail:   "Navigation middleware kept redirecting. Check your guards for a cycle.",
		DocURL:   "https://eventroutes.dev/docs/errors/R007",
	},
	"R008": {
		Category: CategoryNavigation,
		Message:  "Navigation aborted",
		Detail:   "A navigation middleware stopped the transition.",
		DocURL:   "https://eventroutes.dev/docs/errors/R008",
	},
	"R009": {
		Category: CategoryNavigation,
		Message:  "Sign-in required",
		Detail:   "The route is guarded and no user is signed in for this session.",
		DocURL:   "https://eventroutes.dev/docs/errors/R009",
	},
	"R010": {
		Category: CategoryNavigation,
		Message:  "Access denied",
		Detail:   "The signed-in user may not enter this route.",
		DocURL:   "https://eventroutes.dev/docs/errors/R010",
	},

	// ============================================
	// Config Errors (R020-R023)
	// ============================================

	"R020": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://eventroutes.dev/docs/errors/R020",
	},
	"R021": {
		Category: CategoryConfig,
		Message:  "Invalid route table",
		Detail:   "The configured routes could not be compiled into a route table.",
		DocURL:   "https://eventroutes.dev/docs/errors/R021",
	},
	"R022": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or not recognized.",
		DocURL:   "https://eventroutes.dev/docs/errors/R022",
	},
	"R023": {
		Category: CategoryConfig,
		Message:  "Remote configuration unavailable",
		Detail:   "The configuration object could not be fetched from object storage.",
		DocURL:   "https://eventroutes.dev/docs/errors/R023",
	},

	// ============================================
	// Protocol Errors (R040-R049)
	// ============================================

	"R040": {
		Category: CategoryProtocol,
		Message:  "Invalid message",
		Detail:   "The client sent a message that could not be decoded or has an unknown type.",
		DocURL:   "https://eventroutes.dev/docs/errors/R040",
	},

	// ============================================
	// CLI Errors (R060-R069)
	// ============================================

	"R060": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with malformed arguments.",
		DocURL:   "https://eventroutes.dev/docs/errors/R060",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

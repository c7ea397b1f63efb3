package finding

// Category is one of the ten OWASP Top 10 (2021) risk categories.
type Category string

const (
	CategoryBrokenAccessControl    Category = "A01:2021"
	CategoryCryptographicFailures  Category = "A02:2021"
	CategoryInjection              Category = "A03:2021"
	CategoryInsecureDesign         Category = "A04:2021"
	CategorySecurityMisconfig      Category = "A05:2021"
	CategoryVulnerableComponents   Category = "A06:2021"
	CategoryAuthFailures           Category = "A07:2021"
	CategoryIntegrityFailures      Category = "A08:2021"
	CategoryLoggingFailures        Category = "A09:2021"
	CategoryServerSideRequestForge Category = "A10:2021"
)

// Categories lists the OWASP Top 10 in their canonical order.
var Categories = []Category{
	CategoryBrokenAccessControl,
	CategoryCryptographicFailures,
	CategoryInjection,
	CategoryInsecureDesign,
	CategorySecurityMisconfig,
	CategoryVulnerableComponents,
	CategoryAuthFailures,
	CategoryIntegrityFailures,
	CategoryLoggingFailures,
	CategoryServerSideRequestForge,
}

// Title returns the human readable OWASP name.
func (c Category) Title() string {
	switch c {
	case CategoryBrokenAccessControl:
		return "Broken Access Control"
	case CategoryCryptographicFailures:
		return "Cryptographic Failures"
	case CategoryInjection:
		return "Injection"
	case CategoryInsecureDesign:
		return "Insecure Design"
	case CategorySecurityMisconfig:
		return "Security Misconfiguration"
	case CategoryVulnerableComponents:
		return "Vulnerable and Outdated Components"
	case CategoryAuthFailures:
		return "Identification and Authentication Failures"
	case CategoryIntegrityFailures:
		return "Software and Data Integrity Failures"
	case CategoryLoggingFailures:
		return "Security Logging and Monitoring Failures"
	case CategoryServerSideRequestForge:
		return "Server-Side Request Forgery"
	default:
		return "Unknown"
	}
}

func (c Category) Valid() bool {
	return c.Title() != "Unknown"
}

func (c Category) String() string {
	return string(c)
}

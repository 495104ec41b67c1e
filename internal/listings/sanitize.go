package listings

import "regexp"

var (
	scriptTagPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	eventAttrPattern = regexp.MustCompile(`(?i)on\w+="[^"]*"`)
)

// sanitizeDescription strips script tags and inline event handlers from
// recruiter-supplied markup.
func sanitizeDescription(description string) string {
	description = scriptTagPattern.ReplaceAllString(description, "")
	return eventAttrPattern.ReplaceAllString(description, "")
}

package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// BuildVendorRefreshPrompt creates the single user prompt sent to the search oracle.
// It names every vendor verbatim, the news window, the JSON shape of one entry per
// vendor, and the allowed maturity values.
func BuildVendorRefreshPrompt(vendorNames []string, lookbackDays int) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf(
		"Search for the latest AI capabilities and news (last %d days) for these ERP vendors.\n\n", lookbackDays))

	prompt.WriteString("You MUST use these EXACT names in your response:\n")
	for _, name := range vendorNames {
		prompt.WriteString(fmt.Sprintf("- %q\n", name))
	}

	prompt.WriteString("\nReturn ONLY a valid JSON array with no other text, no markdown, no code blocks:\n")
	prompt.WriteString("[\n")
	for i, name := range vendorNames {
		example := models.AIMaturities[i%len(models.AIMaturities)]
		prompt.WriteString("  {\n")
		prompt.WriteString(fmt.Sprintf("    \"name\": %q,\n", name))
		prompt.WriteString(fmt.Sprintf("    \"ai_maturity\": %q,\n", string(example)))
		prompt.WriteString("    \"capabilities\": [\"capability 1\", \"capability 2\", \"capability 3\"],\n")
		prompt.WriteString("    \"implementation_claims\": \"Brief description of their AI claims in 1-2 sentences\",\n")
		prompt.WriteString("    \"notes\": \"Strategic assessment in 2-3 sentences\",\n")
		prompt.WriteString("    \"sources\": [\"source title or url 1\", \"source title or url 2\"]\n")
		if i < len(vendorNames)-1 {
			prompt.WriteString("  },\n")
		} else {
			prompt.WriteString("  }\n")
		}
	}
	prompt.WriteString("]\n\n")

	quoted := make([]string, len(models.AIMaturities))
	for i, m := range models.AIMaturities {
		quoted[i] = fmt.Sprintf("%q", string(m))
	}
	prompt.WriteString("ai_maturity must be one of: " + strings.Join(quoted, ", "))

	return prompt.String()
}

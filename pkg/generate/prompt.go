package generate

import (
	"fmt"
	"strings"

	"github.com/shpitdev/schema-testgen/pkg/schema"
)

// BuildPrompt renders the generation request for one field. Pure string
// construction; it never fails.
func BuildPrompt(fieldName, dataType string, mandatory, primaryKey bool, businessRules string) string {
	fieldSpecificInfo := ""
	if schema.Classify(dataType) == schema.TypeDate {
		var b strings.Builder
		b.WriteString("\nFor Date fields, use these formats only:\n")
		for _, pattern := range DateFormatHints() {
			b.WriteString("- " + pattern + "\n")
		}
		b.WriteString(`Use "input": null for null date tests.`)
		fieldSpecificInfo = b.String()
	}

	return fmt.Sprintf(`Generate test cases for the field '%s' with following specifications:
- Data Type: %s
- Mandatory: %t
- Primary Key: %t
- Business Rules: %s%s

Requirements:
1. Include ONLY the JSON array of test cases in your response
2. Each test case must have these exact fields:
   - "test_case": A clear, unique identifier for the test
   - "description": Detailed explanation of what the test verifies
   - "expected_result": MUST be exactly "Pass" or "Fail"
   - "input": The test input value (can be null, string, number, etc.)

3. Include these types of test cases:
   - Basic valid inputs
   - Basic invalid inputs
   - Null/empty handling (consider mandatory status)
   - Boundary conditions
   - Edge cases
   - Type validation

4. Consider field-specific requirements:
   - For Date fields: Adhere to specified valid date formats. Use "input": null for null date tests.
   - For String fields: Consider length limits and character restrictions if mentioned in business rules.
   - Handle nullable fields appropriately based on constraints. A non-mandatory field can have null input and Pass.

Return the response in this exact format:
[
    {
        "test_case": "TC001_Valid_Basic",
        "description": "Basic valid input test",
        "expected_result": "Pass",
        "input": "example"
    }
]

IMPORTANT: Return ONLY the JSON array. No additional text or explanation.`,
		fieldName, dataType, mandatory, primaryKey, businessRules, fieldSpecificInfo)
}

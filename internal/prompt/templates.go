package prompt

const scenarioTemplate = `
You are a QA engineer. Based on the following issue description, generate:
1. A section titled "{{.StepsHeading}}" with a numbered list of test steps.
2. A section titled "{{.PositiveHeading}}" with numbered use cases.
3. A section titled "{{.NegativeHeading}}" with numbered edge cases.

The response format must strictly follow this structure:

---
{{.Marker}} {{.StepsHeading}}:
1. Step 1
2. Step 2
...

{{.Marker}} {{.PositiveHeading}}:
1. Scenario 1
2. Scenario 2
...

{{.Marker}} {{.NegativeHeading}}:
1. Scenario 1
2. Scenario 2
...

---

**Issue Description:**
{{.IssueBody}}
`

const testScriptTemplate = `
You are a QA engineer and a Cypress expert. Based on the issue description, test steps, and scenarios, generate Cypress test cases **that are relevant to the issue** while using **only real selectors** extracted from the URLs.

---
### **Extracted URLs for Testing**
{{range .URLs}}{{.}}
{{end}}
### **Valid Selectors for Each URL**
{{range .Selectors}}{{.URL}}: {{join .Selectors ", "}}
{{else}}(no selectors could be extracted)
{{end}}
### **Issue Description**
{{.IssueBody}}

### **Detailed Test Steps for UI Testing**
{{.Steps}}

### **Positive Test Scenarios**
{{.Positives}}

### **Negative Test Scenarios**
{{.Negatives}}

---
### **Strict Guidelines**
1. **Tests should be fully aligned with the issue description and scenarios.**
2. **Use only real selectors from the provided URLs. Do NOT invent class names that are not listed above.**
3. **Ensure each test starts with ` + "`cy.visit()`" + ` on one of the listed URLs and handles dynamically loaded elements using appropriate waiting mechanisms.**
4. **Ensure every element exists before performing assertions** (` + "`cy.get().should('exist')`" + `).
5. **Use a timeout of at least 10000ms when waiting for elements that take longer to appear.**
6. **If an element is missing, log a warning instead of failing immediately.**
7. **Each test should be specific to the extracted URLs and match the issue's test steps and scenarios.**

---
Return **only Cypress test code**, without explanations or markdown formatting.
`

package nlquery

import "fmt"

// Names exposed to the model. These must match the dispatch registry.
const (
	FnCustomersByKeyword             = "get_customers_by_message_keyword"
	FnCustomersByKeywordAndDateRange = "get_customers_by_message_keyword_and_date_range"
	ActionSendMessage                = "send_message"
)

// systemPrompt embeds the schema, the lookup function vocabulary, the single
// supported action, and the current date so the model can resolve relative
// date expressions like "last week".
func systemPrompt(currentDate string) string {
	return fmt.Sprintf(`You are an AI assistant that helps parse natural language queries into structured data.
You need to determine if the input is a query or an action.

Database Schema:
- contacts: id, name, contact_info
- messages: id, contact_id, content, timestamp, direction

Available Functions:
- %s(keyword)
- %s(keyword, start_date, end_date)

Available Actions:
- %s(recipients, message)

Current Date: %s

Format your response as JSON following this structure:
For queries: {"type": "query", "query": {"functionName": "...", "parameters": {...}}}
For actions: {"type": "action", "action": "%s", "message": "...", "query": {"functionName": "...", "parameters": {...}}}`,
		FnCustomersByKeyword,
		FnCustomersByKeywordAndDateRange,
		ActionSendMessage,
		currentDate,
		ActionSendMessage,
	)
}

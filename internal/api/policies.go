package api

import (
	"net/http"
	"strings"
)

// bankPolicies is the static policy handbook served by the facade. It is
// read-only reference content and never consulted by the ledger engine.
var bankPolicies = map[string]string{
	"withdrawal_limit":       "Daily withdrawal limit is $500 for Basic accounts and $2,000 for Premium accounts.",
	"overdraft_fees":         "Overdraft fee is $35 per transaction. Interest is charged at 15% APR on negative balances.",
	"international_transfer": "International transfers cost $25 fixed fee plus 1% currency conversion margin. Takes 3-5 business days.",
	"fraud_protection":       "We monitor all transactions. If you suspect fraud, contact support immediately. Liability is $0 if reported within 24 hours.",
	"support_hours":          "Live support is available 9 AM - 5 PM EST, Monday to Friday. Automated support is 24/7.",
}

type policyResult struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("query"))
	if query == "" {
		http.Error(w, "query is a mandatory field", http.StatusBadRequest)
		return
	}

	results := make([]policyResult, 0)
	for topic, content := range bankPolicies {
		if strings.Contains(strings.ReplaceAll(topic, "_", " "), query) ||
			strings.Contains(strings.ToLower(content), query) {
			results = append(results, policyResult{
				Topic:   strings.ToUpper(topic),
				Content: content,
			})
		}
	}

	message := "Policy found"
	if len(results) == 0 {
		message = "No specific policy found."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"results": results,
	})
}

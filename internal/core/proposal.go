package core

// ProposalLine is one line item suggested by the drafting assistant.
type ProposalLine struct {
	ProductID int64  `json:"product_id" jsonschema_description:"The exact product id from the provided product catalogue"`
	Quantity  int    `json:"quantity" jsonschema_description:"Whole number of units to order, at least 1"`
	UnitPrice string `json:"unit_price" jsonschema_description:"Unit price as a decimal string (e.g. \"12.50\"). Empty string to use the product default price."`
}

// Proposal is an AI-drafted purchase order awaiting human confirmation.
type Proposal struct {
	SupplierID           int64          `json:"supplier_id" jsonschema_description:"The exact supplier id from the provided supplier list"`
	PurchaseDate         string         `json:"purchase_date" jsonschema_description:"Purchase date in YYYY-MM-DD format. Use today's date if unspecified."`
	ExpectedDeliveryDate string         `json:"expected_delivery_date" jsonschema_description:"Expected delivery date in YYYY-MM-DD format, or empty string if unknown"`
	Notes                string         `json:"notes" jsonschema_description:"Short free-text notes for the order, or empty string"`
	Confidence           float64        `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning            string         `json:"reasoning" jsonschema_description:"Explanation of how the request maps to suppliers and products"`
	Lines                []ProposalLine `json:"lines" jsonschema_description:"Line items of the order"`
}

// ClarificationRequest is returned when the request is ambiguous or incomplete.
type ClarificationRequest struct {
	Message string `json:"message" jsonschema_description:"A message asking the user for the missing details (e.g. 'Which supplier should this order go to?')."`
}

// AgentResponse is either a Proposal or a ClarificationRequest.
type AgentResponse struct {
	IsClarificationRequest bool                  `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if you lack enough information to draft a confident purchase order."`
	Clarification          *ClarificationRequest `json:"clarification" jsonschema_description:"Required if is_clarification_request is true, otherwise null."`
	Proposal               *Proposal             `json:"proposal" jsonschema_description:"Required if is_clarification_request is false, otherwise null."`
}

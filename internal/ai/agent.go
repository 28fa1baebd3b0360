package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"supply-console/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService drafts purchase orders from natural language.
type AgentService interface {
	InterpretPurchase(ctx context.Context, request string, catalog string) (*core.AgentResponse, error)
}

type Agent struct {
	client *openai.Client
	model  shared.ResponsesModel
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client, model: shared.ResponsesModel(shared.ChatModelGPT4o)}
}

// InterpretPurchase turns request into either a purchase Proposal or a
// clarification question. catalog lists the suppliers and products the model
// may choose from; ids outside it are rejected later by ApplyTo.
func (a *Agent) InterpretPurchase(ctx context.Context, request string, catalog string) (*core.AgentResponse, error) {
	prompt := fmt.Sprintf(`You are a purchasing assistant for a supply-chain back office.
Your goal is to turn the user's request into a draft purchase order.
Rules:
1. Use ONLY supplier ids and product ids from the catalogue below.
2. Every line needs a product id and a whole quantity of at least 1.
3. Leave unit_price as an empty string unless the user states a price; prices are decimal strings (e.g. "12.50").
4. Dates are YYYY-MM-DD. Today is %s.
5. If the supplier or the products cannot be identified with confidence, ask for clarification instead.
6. Provide a confidence score (0.0-1.0) and explain your reasoning.

Catalogue:
%s

Request: %s`, time.Now().Format(core.DateLayout), catalog, request)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: a.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "purchase_order_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A draft purchase order or a request for clarification"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	return parseResponse(content)
}

// parseResponse decodes the model output and checks the proposal branch.
func parseResponse(content string) (*core.AgentResponse, error) {
	var out core.AgentResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if out.IsClarificationRequest {
		if out.Clarification == nil || out.Clarification.Message == "" {
			return nil, fmt.Errorf("clarification requested without a message")
		}
		out.Proposal = nil
		return &out, nil
	}

	if out.Proposal == nil {
		return nil, fmt.Errorf("response has neither a proposal nor a clarification")
	}
	out.Proposal.Normalize()
	if err := out.Proposal.Validate(); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}
	return &out, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.AgentResponse
	return reflector.Reflect(v)
}

package playbook

import (
	"context"
	"fmt"
	"log/slog"

	validator "github.com/go-playground/validator/v10"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/serialization"
	"github.com/playbook-ai/playbook-ai/internal/workflows"
)

const (
	WorkflowName        = "Playbook AI - Sales Intelligence Pipeline"
	WorkflowDescription = "Analyses a vendor, researches a prospect and writes a sales playbook for selling the vendor's offering to the prospect"

	StepVendorAnalysis     = "vendor-analysis"
	StepProspectResearch   = "prospect-research"
	StepPlaybookGeneration = "playbook-generation"
)

// Input is the run message accepted by the workflow, unknown fields are ignored
type Input struct {
	VendorDomain   string `json:"vendor_domain" validate:"required,domain"`
	ProspectDomain string `json:"prospect_domain" validate:"required,domain"`
}

// InputSchema is published on the workflow detail and enforced before a run starts
const InputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Sales intelligence pipeline input",
  "type": "object",
  "required": ["vendor_domain", "prospect_domain"],
  "properties": {
    "vendor_domain": {
      "type": "string",
      "minLength": 3,
      "description": "Domain of the company selling",
      "examples": ["gong.io"]
    },
    "prospect_domain": {
      "type": "string",
      "minLength": 3,
      "description": "Domain of the company being sold to",
      "examples": ["sendoso.com"]
    }
  },
  "additionalProperties": true
}`

// NewWorkflow builds the three step sales intelligence pipeline
func NewWorkflow(runtime abstractions.Runtime, validate *validator.Validate, logger *slog.Logger) (*workflows.Workflow, error) {
	if runtime == nil {
		return nil, fmt.Errorf("%s: a model runtime is required", WorkflowName)
	}
	steps := []workflows.Step{
		newVendorAnalyst(runtime),
		newProspectResearcher(runtime),
		newPlaybookWriter(runtime),
	}
	return workflows.New(WorkflowName, WorkflowDescription, steps,
		workflows.WithInputSchema([]byte(InputSchema)),
		workflows.WithInputValidator(inputValidator(validate, logger)),
		workflows.WithLogger(logger),
	)
}

func inputValidator(validate *validator.Validate, logger *slog.Logger) workflows.InputValidator {
	return func(ctx context.Context, input abstractions.RunInput) error {
		var in Input
		executionContext := executioncontext.NewExecutionContext(ctx, input.RunID, logger)
		return serialization.Decode(validate, executionContext, input.Message, &in)
	}
}

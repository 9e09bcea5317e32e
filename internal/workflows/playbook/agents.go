package playbook

import (
	"fmt"
	"strings"

	"github.com/playbook-ai/playbook-ai/internal/abstractions"
	"github.com/playbook-ai/playbook-ai/internal/workflows"
)

func newVendorAnalyst(runtime abstractions.Runtime) *workflows.Agent {
	return workflows.NewAgent(
		StepVendorAnalysis,
		"You are a B2B market analyst who profiles software vendors.",
		"Profiles the vendor: offering, ideal customer profile, differentiators and proof points",
		runtime,
		func(session *workflows.Session) (string, error) {
			return fmt.Sprintf("Vendor domain: %s\n\nDescribe what the vendor sells, who it sells to, its key differentiators and its best customer proof points.",
				session.InputString("vendor_domain")), nil
		},
		"Base the analysis on what is publicly known about the domain.",
		"Say so when information is uncertain instead of guessing.",
		"Answer in markdown with one section per topic.",
	)
}

func newProspectResearcher(runtime abstractions.Runtime) *workflows.Agent {
	return workflows.NewAgent(
		StepProspectResearch,
		"You are a sales researcher who prepares account briefs.",
		"Researches the prospect: business, likely priorities, buying committee and fit with the vendor",
		runtime,
		func(session *workflows.Session) (string, error) {
			vendor, ok := session.Output(StepVendorAnalysis)
			if !ok {
				return "", fmt.Errorf("%s requires the output of %s", StepProspectResearch, StepVendorAnalysis)
			}
			return fmt.Sprintf("Prospect domain: %s\n\nVendor profile:\n%s\n\nDescribe the prospect's business, its likely priorities and pains, the roles involved in a purchase and how the vendor fits.",
				session.InputString("prospect_domain"), indent(vendor)), nil
		},
		"Relate every finding to the vendor profile.",
		"Answer in markdown with one section per topic.",
	)
}

func newPlaybookWriter(runtime abstractions.Runtime) *workflows.Agent {
	return workflows.NewAgent(
		StepPlaybookGeneration,
		"You are a sales strategist who writes account playbooks.",
		"Writes the sales playbook: positioning, talk tracks, objection handling and outreach sequence",
		runtime,
		func(session *workflows.Session) (string, error) {
			vendor, ok := session.Output(StepVendorAnalysis)
			if !ok {
				return "", fmt.Errorf("%s requires the output of %s", StepPlaybookGeneration, StepVendorAnalysis)
			}
			prospect, ok := session.Output(StepProspectResearch)
			if !ok {
				return "", fmt.Errorf("%s requires the output of %s", StepPlaybookGeneration, StepProspectResearch)
			}
			return fmt.Sprintf("Vendor: %s\nProspect: %s\n\nVendor profile:\n%s\n\nProspect brief:\n%s\n\nWrite the sales playbook.",
				session.InputString("vendor_domain"), session.InputString("prospect_domain"), indent(vendor), indent(prospect)), nil
		},
		"Include positioning, discovery questions, talk tracks, objection handling and a multi-touch outreach sequence.",
		"Keep it actionable for an account executive.",
	)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

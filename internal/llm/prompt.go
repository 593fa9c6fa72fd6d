package llm

import (
	"fmt"

	"github.com/ppiankov/linkvet/internal/model"
)

const (
	// RelevancyRunName labels the classifier's model call
	RelevancyRunName = "check-general-relevancy-model"
)

// PromptConfig is the immutable product context injected into the classifier
type PromptConfig struct {
	company         string
	productsContext string
}

// NewPromptConfig builds a PromptConfig, falling back to the defaults for empty values
func NewPromptConfig(company, productsContext string) PromptConfig {
	if company == "" {
		company = model.DefaultCompany
	}
	if productsContext == "" {
		productsContext = model.DefaultProductsContext
	}
	return PromptConfig{company: company, productsContext: productsContext}
}

// PromptConfigFromModel converts model.PromptConfig to llm.PromptConfig
func PromptConfigFromModel(cfg model.PromptConfig) PromptConfig {
	return NewPromptConfig(cfg.Company, cfg.ProductsContext)
}

// Company returns the company name used in the prompt
func (p PromptConfig) Company() string {
	return p.company
}

// SystemPrompt renders the system message for the relevance check
func (p PromptConfig) SystemPrompt() string {
	return fmt.Sprintf(`You are a highly regarded marketing employee at %[1]s.
You're provided with a webpage containing content a third party submitted to %[1]s claiming it's relevant and implements %[1]s's products.
Your task is to carefully read over the entire page, and determine whether or not the content actually implements and is relevant to %[1]s's products.
You're doing this to ensure the content is relevant to %[1]s, and it can be used as marketing material to promote %[1]s.

For context, %[1]s has three main products you should be looking out for:
%[2]s

Given this context, examine the webpage content closely, and determine if the content implements %[1]s's products.
You should provide reasoning as to why or why not the content implements %[1]s's products, then a simple true or false for whether or not it implements some.`,
		p.company, p.productsContext)
}

// Schema returns the relevancy output schema described in terms of the company
func (p PromptConfig) Schema() Schema {
	return Schema{
		Name:                 RelevancySchemaName,
		Description:          fmt.Sprintf("The relevancy of the content to %s's products.", p.company),
		ReasoningDescription: fmt.Sprintf("Reasoning for why the webpage is or isn't relevant to %s's products.", p.company),
		RelevantDescription:  fmt.Sprintf("Whether or not the webpage is relevant to %s's products.", p.company),
	}
}

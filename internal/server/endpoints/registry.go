package endpoints

import (
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Engine endpoints
		&GenerateEndpoint{},
		&AnswerEndpoint{},

		// Template endpoints
		&ListTemplatesEndpoint{},
		&GetTemplateEndpoint{},

		// Result endpoints
		&ListResultsEndpoint{},
		&GetResultEndpoint{},
		&DeleteResultEndpoint{},

		// Post-processing endpoints
		&NarrateEndpoint{},
		&IngestEndpoint{},
	}
}

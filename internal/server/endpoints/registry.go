package endpoints

import "github.com/jackzampolin/primer/internal/api"

// All returns all endpoint instances. StaticEndpoint comes last so its
// catch-all route never shadows the API.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{},
		&GetSettingsEndpoint{},

		&ListBooksEndpoint{},
		&GetBookEndpoint{},

		&GetCatalogEndpoint{},
		&CatalogHTMLEndpoint{},
		&DiagnosticsEndpoint{},
		&RunCatalogEndpoint{},
		&RunSegmentsEndpoint{},
		&LeafTextEndpoint{},

		&GetMindmapEndpoint{},
		&RunMindmapEndpoint{},
		&RunIndexEndpoint{},
		&SearchEndpoint{},

		&ListLLMCallsEndpoint{},
		&BookUsageEndpoint{},

		&ListBookPromptsEndpoint{},
		&SetBookPromptEndpoint{},
		&ClearBookPromptEndpoint{},

		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},

		&StaticEndpoint{},
	}
}

package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/config"
	"github.com/jackzampolin/primer/internal/svcctx"
)

const redacted = "********"

// SettingsResponse is the effective configuration with secrets redacted.
type SettingsResponse struct {
	ConfigFile string         `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Config     *config.Config `json:"config" yaml:"config"`
}

// GetSettingsEndpoint handles GET /api/settings.
type GetSettingsEndpoint struct{}

func (e *GetSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

// handler godoc
//
//	@Summary		Effective configuration
//	@Description	The configuration the server is running with; literal API keys are redacted
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Router			/api/settings [get]
func (e *GetSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := SettingsResponse{Config: redact(configFrom(r))}
	if svc := svcctx.ServicesFrom(r.Context()); svc != nil && svc.ConfigManager != nil {
		resp.ConfigFile = svc.ConfigManager.ConfigFileUsed()
	}
	writeJSON(w, http.StatusOK, resp)
}

// redact copies cfg, hiding API keys that are not ${ENV} references.
func redact(cfg *config.Config) *config.Config {
	out := *cfg
	out.LLMProviders = make(map[string]config.LLMProviderCfg, len(cfg.LLMProviders))
	for name, p := range cfg.LLMProviders {
		if p.APIKey != "" && config.ResolveEnvVars(p.APIKey) == p.APIKey {
			p.APIKey = redacted
		}
		out.LLMProviders[name] = p
	}
	return &out
}

func (e *GetSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the server's effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

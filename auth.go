package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/translate"
)

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys of translation providers.

Keys are stored in $XDG_DATA_HOME/locsync/auth.json (0600).

Lookup order when translating:
  1. --api-key flag
  2. LOCSYNC_API_KEY environment variable
  3. The provider's own variable (GOOGLE_API_KEY, OPENAI_API_KEY, ...)
  4. Stored key

Examples:
  locsync auth login --provider google       Store a Google AI API key
  locsync auth login --provider custom-openai
  locsync auth logout --provider google      Remove the Google key
  locsync auth logout                        Remove all keys
  locsync auth list                          Show stored keys`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// keyHelp lists where to get a key for each provider that needs one.
var keyHelp = map[string]string{
	translate.ProviderGoogle:    "https://aistudio.google.com/apikey",
	translate.ProviderGroq:      "https://console.groq.com/keys",
	translate.ProviderOpenAI:    "https://platform.openai.com/api-keys",
	translate.ProviderAnthropic: "https://console.anthropic.com/settings/keys",
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		Run: func(cmd *cobra.Command, args []string) {
			if provider == "" {
				provider = translate.ProviderGoogle
			}
			prov, ok := translate.DefaultProviders()[provider]
			if !ok {
				logError("Unknown provider '%s'. Known providers: %s", provider, strings.Join(translate.ProviderIDs(), ", "))
				os.Exit(1)
			}
			if prov.ID == translate.ProviderOllama {
				logInfo("Ollama needs no API key")
				return
			}
			authLogin(prov)
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider to store a key for (default: google)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeProviders)

	return cmd
}

func authLogin(prov translate.Provider) {
	fmt.Fprintf(os.Stderr, "\n%s\n", blue.Sprintf("%s — API Key Setup", prov.Name))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	if url := keyHelp[prov.ID]; url != "" {
		fmt.Fprintf(os.Stderr, "  Get your API key from: %s\n\n", green.Sprint(url))
	}

	baseURL := ""
	if prov.ID == translate.ProviderCustomOpenAI {
		current := settings.GetBaseURL(prov.ID)
		fmt.Fprintf(os.Stderr, "  Endpoint URL")
		if current != "" {
			fmt.Fprintf(os.Stderr, " [%s]", current)
		}
		fmt.Fprintf(os.Stderr, ": ")
		baseURL = readLine()
		if baseURL == "" {
			baseURL = current
		}
		if baseURL == "" {
			logError("No endpoint URL provided")
			os.Exit(1)
		}
	}

	existing := settings.GetAPIKey(prov.ID)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s\n", yellow.Sprint(settings.MaskKey(existing)))
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter API key: "))
	}
	key := readSecret()
	if key == "" {
		key = existing
	}
	if key == "" && prov.NeedsKey() {
		logError("No API key provided")
		os.Exit(1)
	}

	if err := settings.SetAPIKey(prov.ID, key, baseURL); err != nil {
		logError("Failed to save API key: %v", err)
		os.Exit(1)
	}
	logSuccess(i18n.T("API key saved for %s"), prov.Name)
	fmt.Fprintf(os.Stderr, "\n  You can now use: locsync sync --provider %s\n\n", prov.ID)
}

// readSecret reads a line from stdin without echo when stdin is a terminal.
func readSecret() string {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
	return readLine()
}

func readLine() string {
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API keys",
		Long: `Remove the stored key of one provider, or of all providers when
--provider is not given.`,
		Run: func(cmd *cobra.Command, args []string) {
			if provider != "" {
				if err := settings.Remove(provider); err != nil {
					logError("Failed to remove %s credentials: %v", provider, err)
					os.Exit(1)
				}
				logSuccess(i18n.T("Credentials removed for %s"), provider)
				return
			}
			if err := settings.RemoveAll(); err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			logSuccess("%s", i18n.T("All stored credentials removed"))
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeProviders)

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored API keys",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%s\n", blue.Sprint(i18n.T("Stored Credentials")))
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			fmt.Fprintf(os.Stderr, "  %s\n\n", settings.FilePath())

			defaults := translate.DefaultProviders()
			for _, id := range translate.ProviderIDs() {
				if id == translate.ProviderOllama {
					continue
				}
				entry := settings.Get(id)
				switch {
				case entry != nil && entry.Key != "":
					status := green.Sprint("configured") + fmt.Sprintf(" (key: %s)", settings.MaskKey(entry.Key))
					if entry.BaseURL != "" {
						status += fmt.Sprintf("\n  %-14s endpoint: %s", "", entry.BaseURL)
					}
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", id, status)
				case entry != nil && entry.BaseURL != "":
					fmt.Fprintf(os.Stderr, "  %-14s %s (no key)\n  %-14s endpoint: %s\n", id, green.Sprint("configured"), "", entry.BaseURL)
				default:
					fmt.Fprintf(os.Stderr, "  %-14s %s  %s\n", id, red.Sprint("not configured"), defaults[id].Name)
				}
			}

			env, _ := config.LoadEnv()
			fmt.Fprintf(os.Stderr, "\n  LOCSYNC_API_KEY: %s\n\n", maskedEnvKey(env))
		},
	}
}

// ---------------------------------------------------------------------------
// Provider resolution
// ---------------------------------------------------------------------------

// resolveProvider combines the provider defaults, .locsync.yaml, the
// environment and flags, in increasing priority.
func resolveProvider(proj *project, a syncArgs) translate.Provider {
	cfg := proj.file.Provider
	name := firstNonEmpty(a.provider, cfg.ID, translate.ProviderGoogle)

	prov, ok := translate.DefaultProviders()[strings.ToLower(name)]
	if !ok {
		// An unknown name is taken as the URL of an OpenAI-compatible endpoint.
		prov = translate.Provider{
			ID:      translate.ProviderCustomOpenAI,
			Name:    name,
			BaseURL: name,
			Timeout: 60 * time.Second,
		}
	}

	prov.BaseURL = firstNonEmpty(a.baseURL, cfg.BaseURL, settings.GetBaseURL(prov.ID), prov.BaseURL)
	prov.Model = firstNonEmpty(a.model, cfg.Model, prov.Model)
	prov.Proxy = firstNonEmpty(a.proxy, cfg.Proxy)
	prov.APIKey = settings.ResolveAPIKey(prov.ID, a.apiKey, proj.env.APIKey)
	if a.timeout > 0 {
		prov.Timeout = a.timeout
	} else if cfg.Timeout > 0 {
		prov.Timeout = cfg.Timeout
	}
	return prov
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// validateProvider checks that prov can be used before any file is touched.
func validateProvider(prov translate.Provider) error {
	if prov.Model == "" {
		modelExamples := map[string]string{
			translate.ProviderOllama:       "llama3.2, qwen2.5, mistral",
			translate.ProviderAnthropic:    "claude-3-5-haiku-latest, claude-sonnet-4-0",
			translate.ProviderCustomOpenAI: "gpt-4o, gpt-4o-mini (depends on your endpoint)",
		}
		examples := modelExamples[prov.ID]
		if examples == "" {
			examples = "check provider documentation"
		}
		return fmt.Errorf("--model is required for provider '%s'\n\n"+
			"Example models for %s:\n  %s\n\n"+
			"Usage: --provider %s --model MODEL_NAME",
			prov.ID, prov.Name, examples, prov.ID)
	}

	if prov.BaseURL == "" {
		return fmt.Errorf("provider '%s' requires an endpoint URL\n\n"+
			"Option 1: Configure via auth:\n"+
			"  locsync auth login --provider %s\n\n"+
			"Option 2: Pass directly:\n"+
			"  --base-url https://api.example.com/v1", prov.ID, prov.ID)
	}

	if prov.NeedsKey() && prov.APIKey == "" {
		msg := fmt.Sprintf("provider '%s' requires an API key\n\n"+
			"Option 1: Store your API key:\n"+
			"  locsync auth login --provider %s\n\n"+
			"Option 2: Pass key directly:\n"+
			"  --api-key YOUR_KEY or export LOCSYNC_API_KEY=YOUR_KEY", prov.ID, prov.ID)
		if url := keyHelp[prov.ID]; url != "" {
			msg += "\n\nGet an API key from: " + url
		}
		return fmt.Errorf("%s", msg)
	}

	if prov.ID == translate.ProviderOllama {
		client := &http.Client{Timeout: 2 * time.Second}
		base := strings.TrimSuffix(strings.TrimRight(prov.BaseURL, "/"), "/v1")
		resp, err := client.Get(base + "/api/tags")
		if err != nil {
			return fmt.Errorf("provider 'ollama' requires Ollama server to be running\n\n" +
				"Start Ollama with: ollama serve\n" +
				"Install from: https://ollama.com")
		}
		resp.Body.Close()
	}

	return nil
}

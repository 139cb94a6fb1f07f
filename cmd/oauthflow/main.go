package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/oauthflow/internal/config"
	"github.com/dropDatabas3/oauthflow/internal/oauth"
	"github.com/dropDatabas3/oauthflow/internal/observability/logger"
	"github.com/dropDatabas3/oauthflow/internal/util"
	"github.com/dropDatabas3/oauthflow/internal/util/atomicwrite"
)

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// cli guarda los flags globales y el fetcher (inyectable en tests).
type cli struct {
	configPath   string
	provider     string
	clientID     string
	clientSecret string
	redirectURL  string
	out          string // "json" | "text"
	reveal       bool
	sessionFile  string

	fetcher oauth.Fetcher
	stdout  io.Writer
	stdin   io.Reader
}

// resolve arma credenciales y endpoint: --config primero, --provider pisa
// las URLs, los flags de cliente pisan lo que venga del archivo.
func (c *cli) resolve() (oauth.ClientCredentials, oauth.Endpoint, string, error) {
	var ep oauth.Endpoint
	id, secret, redirect := c.clientID, c.clientSecret, c.redirectURL

	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return oauth.ClientCredentials{}, ep, "", err
		}
		ep = cfg.Provider.Endpoint
		if id == "" {
			id = cfg.Provider.ClientID
		}
		if secret == "" {
			secret = cfg.Provider.ClientSecret
		}
		if redirect == "" {
			redirect = cfg.Provider.RedirectURL
		}
	}
	if c.provider != "" {
		p, ok := oauth.Preset(c.provider)
		if !ok {
			return oauth.ClientCredentials{}, ep, "", fmt.Errorf("proveedor desconocido %q (opciones: %s)",
				c.provider, strings.Join(oauth.PresetNames(), ", "))
		}
		ep = p
	}
	if ep.AuthURL == "" {
		return oauth.ClientCredentials{}, ep, "", errors.New("falta proveedor (flag --provider o --config)")
	}

	creds, err := oauth.NewClientCredentials(id, secret)
	if err != nil {
		return oauth.ClientCredentials{}, ep, "", err
	}
	return creds, ep, redirect, nil
}

func (c *cli) flow(rd oauth.Redirector, token string) (*oauth.Flow, error) {
	creds, ep, redirect, err := c.resolve()
	if err != nil {
		return nil, err
	}
	opts := []oauth.Option{oauth.WithRedirectURL(redirect), oauth.WithAccessToken(token)}
	if c.fetcher != nil {
		opts = append(opts, oauth.WithFetcher(c.fetcher))
	}
	return oauth.New(creds, ep, rd, opts...), nil
}

// storedToken lee el access token del --session-file, si existe.
func (c *cli) storedToken() (string, error) {
	if c.sessionFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.sessionFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var s oauth.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("session file %s: %w", c.sessionFile, err)
	}
	return s.AccessToken, nil
}

// saveSession persiste el snapshot completo (sin enmascarar) en --session-file.
func (c *cli) saveSession(s oauth.Session) error {
	if c.sessionFile == "" {
		return nil
	}
	return atomicwrite.WriteJSON(c.sessionFile, s, 0o600)
}

func (c *cli) printSession(s oauth.Session) error {
	if !c.reveal {
		s.AccessToken = util.MaskToken(s.AccessToken)
	}
	if c.out == "json" {
		return c.printJSON(s)
	}
	fmt.Fprintf(c.stdout, "state=%s authorized=%t\n", s.State, s.Authorized)
	if s.AccessToken != "" {
		fmt.Fprintf(c.stdout, "access_token=%s token_type=%s\n", s.AccessToken, s.TokenType)
	}
	if !s.AccessTokenExpiration.IsZero() {
		fmt.Fprintf(c.stdout, "expires_at=%s\n", s.AccessTokenExpiration.UTC().Format(time.RFC3339))
	}
	if u := s.UserInfo; u != nil {
		fmt.Fprintf(c.stdout, "user id=%s email=%s name=%s\n", u.ID, u.Email, u.FullName)
	}
	if s.Error != "" {
		fmt.Fprintf(c.stdout, "error=%s reason=%s description=%s\n", s.Error, s.ErrorReason, s.ErrorDescription)
	}
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "oauthflow",
		Short:         "Cliente OAuth2 (authorization code) por línea de comandos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.out {
			case "json", "text":
				return nil
			default:
				return fmt.Errorf("--out inválido %q (json|text)", c.out)
			}
		},
	}
	root.SetOut(c.stdout)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", envOr("CONFIG_PATH", ""), "ruta a config.yaml (env CONFIG_PATH)")
	pf.StringVar(&c.provider, "provider", envOr("OAUTH_PROVIDER", ""), "preset de proveedor (env OAUTH_PROVIDER)")
	pf.StringVar(&c.clientID, "client-id", envOr("OAUTH_CLIENT_ID", ""), "client id (env OAUTH_CLIENT_ID)")
	pf.StringVar(&c.clientSecret, "client-secret", envOr("OAUTH_CLIENT_SECRET", ""), "client secret (env OAUTH_CLIENT_SECRET)")
	pf.StringVar(&c.redirectURL, "redirect-url", envOr("OAUTH_REDIRECT_URL", ""), "redirect_uri registrado (env OAUTH_REDIRECT_URL)")
	pf.StringVar(&c.out, "out", "text", "formato de salida: json|text")
	pf.BoolVar(&c.reveal, "reveal", false, "muestra el access token sin enmascarar")
	pf.StringVar(&c.sessionFile, "session-file", envOr("OAUTH_SESSION_FILE", ""), "archivo donde se guarda/lee la sesión (env OAUTH_SESSION_FILE)")

	root.AddCommand(providersCmd(c), authorizeURLCmd(c), callbackCmd(c), parseTokenCmd(c))
	return root
}

func providersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Lista los presets de proveedor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := oauth.PresetNames()
			sort.Strings(names)
			if c.out == "json" {
				eps := make([]oauth.Endpoint, 0, len(names))
				for _, n := range names {
					ep, _ := oauth.Preset(n)
					eps = append(eps, ep)
				}
				return c.printJSON(eps)
			}
			for _, n := range names {
				ep, _ := oauth.Preset(n)
				fmt.Fprintf(c.stdout, "%-10s %s\n", n, ep.AuthURL)
			}
			return nil
		},
	}
}

func authorizeURLCmd(c *cli) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Inicia el flujo: imprime la URL de autorización (o la sesión si el token guardado sigue válido)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				stored, err := c.storedToken()
				if err != nil {
					return err
				}
				token = stored
			}
			var target string
			f, err := c.flow(oauth.RedirectFunc(func(u string) { target = u }), token)
			if err != nil {
				return err
			}
			if err := f.Initiate(cmd.Context()); err != nil {
				return err
			}
			// se guarda también cuando hay redirect: un token rechazado no se
			// vuelve a mandar en la próxima corrida
			if err := c.saveSession(f.Session()); err != nil {
				return err
			}
			if target == "" {
				return c.printSession(f.Session())
			}
			if c.out == "json" {
				return c.printJSON(map[string]string{"redirect_url": target})
			}
			fmt.Fprintln(c.stdout, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token guardado a revalidar (default: el de --session-file)")
	return cmd
}

func callbackCmd(c *cli) *cobra.Command {
	var code, errCode, errReason, errDesc string
	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Procesa el callback del proveedor (--code o --error)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(code) == "" && strings.TrimSpace(errCode) == "" {
				return errors.New("se requiere --code o --error")
			}
			f, err := c.flow(nil, "")
			if err != nil {
				return err
			}
			q := callbackParams{
				"code":              code,
				"error":             errCode,
				"error_reason":      errReason,
				"error_description": errDesc,
			}
			if err := f.HandleCallback(cmd.Context(), q); err != nil {
				return err
			}
			if err := c.saveSession(f.Session()); err != nil {
				return err
			}
			return c.printSession(f.Session())
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code")
	cmd.Flags().StringVar(&errCode, "error", "", "error devuelto por el proveedor")
	cmd.Flags().StringVar(&errReason, "error-reason", "", "error_reason devuelto por el proveedor")
	cmd.Flags().StringVar(&errDesc, "error-description", "", "error_description devuelto por el proveedor")
	return cmd
}

type callbackParams map[string]string

func (p callbackParams) Get(k string) string { return p[k] }

func parseTokenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse-token",
		Short: "Normaliza una respuesta del token endpoint leída de stdin (JSON o form)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := io.ReadAll(io.LimitReader(c.stdin, 1<<20))
			if err != nil {
				return err
			}
			tr, err := oauth.ParseTokenResponse(string(b))
			if err != nil {
				return err
			}
			if !c.reveal {
				tr.AccessToken = util.MaskToken(tr.AccessToken)
			}
			if c.out == "json" {
				return c.printJSON(tr)
			}
			fmt.Fprintf(c.stdout, "access_token=%s token_type=%s code=%s", tr.AccessToken, tr.TokenType, tr.Code)
			if tr.ExpiresIn != nil {
				fmt.Fprintf(c.stdout, " expires_in=%d", *tr.ExpiresIn)
			}
			fmt.Fprintln(c.stdout)
			return nil
		},
	}
}

func main() {
	_ = godotenv.Load()
	logger.Init(logger.Config{Env: envOr("APP_ENV", "dev"), Level: envOr("LOG_LEVEL", "warn")})
	defer func() { _ = logger.Sync() }()

	c := &cli{stdout: os.Stdout, stdin: os.Stdin}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

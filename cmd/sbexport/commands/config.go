package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sbexport/lib/configutil"
	"sbexport/lib/export"
	"sbexport/lib/extract"
	"sbexport/lib/restyutil"
	"sbexport/lib/scrapers/shopback"
	"sbexport/services/exporter"
	"time"

	"github.com/joho/godotenv"
)

const cookieEnv = "SHOPBACK_COOKIE"

type Config struct {
	OutDir string `json:"outDir"`
	Format string `json:"format"`
	// FieldMap is the json5 file overriding the default dom selectors.
	FieldMap string `json:"fieldMap"`

	BaseUrl         string `json:"baseUrl"`
	Cookie          string `json:"cookie"`
	UserAgent       string `json:"userAgent"`
	Platform        string `json:"platform"`
	Mobile          bool   `json:"mobile"`
	OrderActionId   string `json:"orderActionId"`
	RouterStateTree string `json:"routerStateTree"`
	TimeoutSeconds  int    `json:"timeoutSeconds"`

	Chrome ChromeConfig `json:"chrome"`
}

type ChromeConfig struct {
	// RemoteURL attaches to a running, logged in chrome started with
	// --remote-debugging-port.
	RemoteURL   string `json:"remoteUrl"`
	Headless    bool   `json:"headless"`
	UserDataDir string `json:"userDataDir"`
}

// loadConfig reads the config file (which may be absent), then the
// cookie from the environment or .env, then applies the cli flags.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "err", err)
	}
	if cookie := os.Getenv(cookieEnv); cookie != "" {
		cfg.Cookie = cookie
	}

	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *format != "" {
		cfg.Format = *format
	}
	return cfg, nil
}

func (c Config) fieldMap() (extract.FieldMap, error) {
	if c.FieldMap == "" {
		return extract.DefaultFieldMap(), nil
	}
	return extract.LoadFieldMap(c.FieldMap)
}

func (c Config) service() (exporter.Service, error) {
	var outFormat export.Format
	if c.Format != "" {
		parsed, err := export.ParseFormat(c.Format)
		if err != nil {
			return exporter.Service{}, err
		}
		outFormat = parsed
	}
	dir := c.OutDir
	if dir == "" {
		dir = "."
	}
	return exporter.Service{
		Writer: export.Writer{Dir: dir},
		Format: outFormat,
	}, nil
}

func (c Config) client() (*shopback.Client, error) {
	if c.Cookie == "" {
		return nil, fmt.Errorf("no session cookie, set %s or \"cookie\" in %s", cookieEnv, *configPath)
	}
	if *dumpHttp {
		out, err := restyutil.NewFilesystemOutput(".dev/resty/shopback")
		if err != nil {
			return nil, err
		}
		shopback.SetRestyInstrumentOutput(out)
	}
	return shopback.NewClient(shopback.ClientOptions{
		BaseUrl:         c.BaseUrl,
		Cookie:          c.Cookie,
		UserAgent:       c.UserAgent,
		Platform:        c.Platform,
		Mobile:          c.Mobile,
		OrderActionId:   c.OrderActionId,
		RouterStateTree: c.RouterStateTree,
		Timeout:         time.Duration(c.TimeoutSeconds) * time.Second,
	})
}

func (c Config) browserOptions(remoteOverride string) shopback.BrowserOptions {
	opts := shopback.BrowserOptions{
		RemoteURL:   c.Chrome.RemoteURL,
		Headless:    c.Chrome.Headless,
		UserDataDir: c.Chrome.UserDataDir,
	}
	if remoteOverride != "" {
		opts.RemoteURL = remoteOverride
	}
	return opts
}

func (c Config) pageURL(path string) string {
	if c.BaseUrl == "" {
		return ""
	}
	return c.BaseUrl + path
}

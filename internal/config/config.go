package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	DBPath      string
	ConfigPath  string // Path to the YAML config file
	OutputDir   string // Where JSON artifacts are written
	DatasetsDir string // Where census and EIA source files live
}

// SiteConfig holds all target-site specific settings (from YAML)
type SiteConfig struct {
	BaseURL     string              `yaml:"base_url"`
	Engine      string              `yaml:"engine"` // "rod" or "static"
	UserAgent   string              `yaml:"user_agent"`
	Browser     Browser             `yaml:"browser"`
	Timing      Timing              `yaml:"timing"`
	MaxAttempts int                 `yaml:"max_attempts"` // negative disables the guard
	Regions     map[string][]string `yaml:"regions"`
	Selectors   Selectors           `yaml:"selectors"`
	Datasets    Datasets            `yaml:"datasets"`
}

type Browser struct {
	Headful bool   `yaml:"headful"`
	Sandbox bool   `yaml:"sandbox"`
	Bin     string `yaml:"bin"`
}

// Timing groups every wait the scraper performs.
type Timing struct {
	PagerWait   time.Duration `yaml:"pager_wait"`   // bounded wait for the next-page control
	SettleDelay time.Duration `yaml:"settle_delay"` // after scrolling, before clicking
	RenderDelay time.Duration `yaml:"render_delay"` // after clicking, before reading
	NavTimeout  time.Duration `yaml:"nav_timeout"`
	Stable      time.Duration `yaml:"stable"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

type Selectors struct {
	ProviderList string            `yaml:"provider_list"`
	Table        TableSelectors    `yaml:"table"`
	Provider     ProviderSelectors `yaml:"provider"`
}

// TableSelectors are evaluated inside a table's section.
type TableSelectors struct {
	Rows       string `yaml:"rows"`
	Cells      string `yaml:"cells"`
	Link       string `yaml:"link"`
	Footer     string `yaml:"footer"`
	Pagination string `yaml:"pagination"`
	NextPage   string `yaml:"next_page"` // evaluated inside Pagination
}

type ProviderSelectors struct {
	Title           string `yaml:"title"`
	OverviewColumns string `yaml:"overview_columns"`
	TypeSpans       string `yaml:"type_spans"`
	InfoLists       string `yaml:"info_lists"`
	WebsiteLink     string `yaml:"website_link"`
	ServiceTypes    string `yaml:"service_types"`
	FactGroups      string `yaml:"fact_groups"`
	FactTitle       string `yaml:"fact_title"`
	FactItems       string `yaml:"fact_items"`
	FactLabel       string `yaml:"fact_label"`
	FactValue       string `yaml:"fact_value"`
	FactUnits       string `yaml:"fact_units"`
	CustomersTitle  string `yaml:"customers_title"`
	ProductionTitle string `yaml:"production_title"`
	Cities          string `yaml:"cities"`
	CitiesFallback  string `yaml:"cities_fallback"` // inside the second overview column
	CityLink        string `yaml:"city_link"`
	Counties        string `yaml:"counties"`
	States          string `yaml:"states"`
}

// Datasets names the inputs and outputs of the census and merge commands.
// Relative paths are resolved against AppConfig.DatasetsDir / OutputDir.
type Datasets struct {
	PopulationCSV  string `yaml:"population_csv"`
	GenerationXLSX string `yaml:"generation_xlsx"`
	FirstYear      int    `yaml:"first_year"`
	LastYear       int    `yaml:"last_year"`
	WaterProviders string `yaml:"water_providers"`
	AllStatesFile  string `yaml:"all_states_file"`
}

// DefaultSiteConfig returns settings that work against findenergy.com as of
// the last successful run. YAML values override them field by field.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		BaseURL:     "https://findenergy.com/",
		Engine:      "rod",
		UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		MaxAttempts: 500,
		Timing: Timing{
			PagerWait:   3 * time.Second,
			SettleDelay: 6 * time.Second,
			RenderDelay: 6 * time.Second,
			NavTimeout:  90 * time.Second,
			Stable:      800 * time.Millisecond,
			HTTPTimeout: 30 * time.Second,
		},
		Regions: map[string][]string{
			"region-1": {"CT", "ME", "MA", "NH", "RI", "VT"},
			"region-2": {"NJ", "NY"},
			"region-3": {"DE", "MD", "PA", "VA", "WV"},
			"region-4": {"AL", "FL", "GA", "KY", "MS", "NC", "SC", "TN"},
			"region-5": {"IL", "IN", "MI", "MN", "OH", "WI"},
		},
		Selectors: Selectors{
			ProviderList: "#electricity-providers",
			Table: TableSelectors{
				Rows:       ".table.sortable-table tbody tr",
				Cells:      "td",
				Link:       "a",
				Footer:     ".table-footer__data",
				Pagination: "ul.pagination",
				NextPage:   "li.active + li",
			},
			Provider: ProviderSelectors{
				Title:           ".overview__title",
				OverviewColumns: "section#overview .col-lg-5",
				TypeSpans:       "li span",
				InfoLists:       "ul.list-unstyled.company-info__list",
				WebsiteLink:     "li a",
				ServiceTypes:    ".tab-nav.tab-nav--underlined .tab-nav__link",
				FactGroups:      ".sidebar-widget .facts-item",
				FactTitle:       "h3.facts-item__title",
				FactItems:       ".facts-item__li",
				FactLabel:       ".facts-item__label",
				FactValue:       ".facts-item__data strong",
				FactUnits:       ".text-muted",
				CustomersTitle:  "SALES & CUSTOMERS",
				ProductionTitle: "ENERGY PRODUCTION",
				Cities:          "#city-coverage li",
				CitiesFallback:  "ul.list-unstyled.company-info__list:nth-child(3) > li:nth-child(3) ul.list-unstyled li",
				CityLink:        "a",
				Counties:        "#county-coverage",
				States:          "#state-coverage",
			},
		},
		Datasets: Datasets{
			PopulationCSV:  "sub-est2021_all.csv",
			GenerationXLSX: "annual_generation_state.xlsx",
			FirstYear:      1990,
			LastYear:       2020,
			WaterProviders: "region-5-water.json",
			AllStatesFile:  "all-states-info.json",
		},
	}
}

// GetAppConfig reads basic infrastructure settings from environment variables.
// A .env file in the working directory is honoured if present.
func GetAppConfig() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		DBPath:      os.Getenv("DB_PATH"),
		ConfigPath:  os.Getenv("CONFIG_PATH"),
		OutputDir:   os.Getenv("OUTPUT_DIR"),
		DatasetsDir: os.Getenv("DATASETS_DIR"),
	}

	// Set defaults if not provided
	if cfg.DBPath == "" {
		cfg.DBPath = "./local-data/providers.db"
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "config.yaml"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "outputs"
	}
	if cfg.DatasetsDir == "" {
		cfg.DatasetsDir = "datasets"
	}
	return cfg, nil
}

// LoadSiteConfig reads the YAML file and fills anything it leaves unset from
// DefaultSiteConfig. A missing file yields the defaults.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	var cfg SiteConfig

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := mergo.Merge(&cfg, DefaultSiteConfig()); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the scraper cannot run with.
func (c *SiteConfig) Validate() error {
	switch c.Engine {
	case "rod", "static":
	default:
		return fmt.Errorf("unknown engine %q (want rod or static)", c.Engine)
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	for name, states := range c.Regions {
		for i, s := range states {
			abbr := strings.ToUpper(strings.TrimSpace(s))
			if _, ok := StateName(abbr); !ok {
				return fmt.Errorf("region %s: unknown state %q", name, s)
			}
			states[i] = abbr
		}
	}
	return nil
}

// RegionStates returns the states of a named region. The name "all" means
// every state.
func (c *SiteConfig) RegionStates(region string) ([]string, error) {
	if region == "all" {
		out := make([]string, 0, len(usStates))
		for _, s := range USStates() {
			out = append(out, s.Abbr)
		}
		return out, nil
	}
	states, ok := c.Regions[region]
	if !ok {
		names := make([]string, 0, len(c.Regions))
		for n := range c.Regions {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown region %q (known: %s, all)", region, strings.Join(names, ", "))
	}
	return append([]string(nil), states...), nil
}

// StateURL is the listing page of a state's providers.
func (c *SiteConfig) StateURL(abbr string) string {
	return c.BaseURL + strings.ToLower(abbr)
}

// Resolve joins a relative dataset path onto dir.
func Resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

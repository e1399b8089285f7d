package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsGoat.
type Config struct {
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Crawl     CrawlConfig     `mapstructure:"crawl"     yaml:"crawl"`
	Pages     PagesConfig     `mapstructure:"pages"     yaml:"pages"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// BrowserConfig controls the browser that renders pages.
type BrowserConfig struct {
	Type              string        `mapstructure:"type"               yaml:"type"` // rod, static
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Bin               string        `mapstructure:"bin"                yaml:"bin"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	WindowSize        string        `mapstructure:"window_size"        yaml:"window_size"`
	UserDataDir       string        `mapstructure:"user_data_dir"      yaml:"user_data_dir"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// CrawlConfig controls the crawl controller.
type CrawlConfig struct {
	ListingURL      string        `mapstructure:"listing_url"       yaml:"listing_url"`
	Concurrency     int           `mapstructure:"concurrency"       yaml:"concurrency"`
	WaitStrategy    string        `mapstructure:"wait_strategy"     yaml:"wait_strategy"` // fixed, stable, selector
	WaitSelector    string        `mapstructure:"wait_selector"     yaml:"wait_selector"`
	RenderWait      time.Duration `mapstructure:"render_wait"       yaml:"render_wait"`
	RenderTimeout   time.Duration `mapstructure:"render_timeout"    yaml:"render_timeout"`
	FirstVisitWait  time.Duration `mapstructure:"first_visit_wait"  yaml:"first_visit_wait"`
	ConsentWait     time.Duration `mapstructure:"consent_wait"      yaml:"consent_wait"`
	StaleBackoff    time.Duration `mapstructure:"stale_backoff"     yaml:"stale_backoff"`
	MaxStaleRetries int           `mapstructure:"max_stale_retries" yaml:"max_stale_retries"` // 0 = unbounded
}

// PagesConfig holds the markers used to classify pages.
type PagesConfig struct {
	VideoMarker        string `mapstructure:"video_marker"         yaml:"video_marker"`
	GalleryTitleMarker string `mapstructure:"gallery_title_marker" yaml:"gallery_title_marker"`
	GalleryURLMarker   string `mapstructure:"gallery_url_marker"   yaml:"gallery_url_marker"`
	LiveBlogPrefix     string `mapstructure:"live_blog_prefix"     yaml:"live_blog_prefix"`
	ArticlePrefix      string `mapstructure:"article_prefix"       yaml:"article_prefix"`
	TitleSuffix        string `mapstructure:"title_suffix"         yaml:"title_suffix"`
}

// SelectorsConfig holds the DOM queries used by the listing and extractors.
// Expressions starting with "/", "./" or "(" are XPath, everything else is CSS.
type SelectorsConfig struct {
	ListingLinks      string   `mapstructure:"listing_links"      yaml:"listing_links"`
	ConsentButtons    []string `mapstructure:"consent_buttons"    yaml:"consent_buttons"`
	Popup             string   `mapstructure:"popup"              yaml:"popup"`
	ArticleParagraphs string   `mapstructure:"article_paragraphs" yaml:"article_paragraphs"`
	ParagraphMarker   string   `mapstructure:"paragraph_marker"   yaml:"paragraph_marker"`
	LiveHeaders       string   `mapstructure:"live_headers"       yaml:"live_headers"`
	LiveHeaderLimit   int      `mapstructure:"live_header_limit"  yaml:"live_header_limit"`
	LivePosts         string   `mapstructure:"live_posts"         yaml:"live_posts"`
	CaptionPrimary    string   `mapstructure:"caption_primary"    yaml:"caption_primary"`
	CaptionSecondary  string   `mapstructure:"caption_secondary"  yaml:"caption_secondary"`
	CopyrightLine     string   `mapstructure:"copyright_line"     yaml:"copyright_line"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string      `mapstructure:"type"        yaml:"type"` // csv, json, jsonl, mongo (comma separated for fan-out)
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	Mode       string      `mapstructure:"mode"        yaml:"mode"` // overwrite, append
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
}

// MongoConfig controls the MongoDB sink.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config tuned for the BBC homepage.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Type:              "rod",
			Headless:          true,
			Stealth:           true,
			WindowSize:        "1366,768",
			NavigationTimeout: 30 * time.Second,
		},
		Crawl: CrawlConfig{
			ListingURL:      "https://www.bbc.com/",
			Concurrency:     1,
			WaitStrategy:    "fixed",
			RenderWait:      1 * time.Second,
			RenderTimeout:   10 * time.Second,
			FirstVisitWait:  5 * time.Second,
			ConsentWait:     3 * time.Second,
			StaleBackoff:    4 * time.Second,
			MaxStaleRetries: 5,
		},
		Pages: PagesConfig{
			VideoMarker:        "/av/",
			GalleryTitleMarker: "in pictures",
			GalleryURLMarker:   "in-pictures",
			LiveBlogPrefix:     "bbc.com/news/live/",
			ArticlePrefix:      "bbc.com/news/",
			TitleSuffix:        " - BBC",
		},
		Selectors: SelectorsConfig{
			ListingLinks: "a.block-link__overlay-link",
			ConsentButtons: []string{
				"//*[contains(text(), 'Consent')]",
				`//*[@id="bbccookies-continue-button"]/span[2]`,
			},
			Popup:             "button.tp-close.tp-active",
			ArticleParagraphs: "//article//p",
			ParagraphMarker:   "paragraph",
			LiveHeaders:       "header",
			LiveHeaderLimit:   20,
			LivePosts:         "div.lx-stream-post-body",
			CaptionPrimary:    "//article//figure//figcaption//span[1]",
			CaptionSecondary:  "//article//figure//figcaption//span[2]",
			CopyrightLine:     "//article//div//div//div//div[2]",
		},
		Storage: StorageConfig{
			Type:       "csv",
			OutputPath: "./output/bbc_data.csv",
			Mode:       "overwrite",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "newsgoat",
				Collection: "articles",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

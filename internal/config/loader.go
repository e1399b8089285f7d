package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NEWSGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newsgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newsgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.type", cfg.Browser.Type)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)

	v.SetDefault("crawl.listing_url", cfg.Crawl.ListingURL)
	v.SetDefault("crawl.concurrency", cfg.Crawl.Concurrency)
	v.SetDefault("crawl.wait_strategy", cfg.Crawl.WaitStrategy)
	v.SetDefault("crawl.wait_selector", cfg.Crawl.WaitSelector)
	v.SetDefault("crawl.render_wait", cfg.Crawl.RenderWait)
	v.SetDefault("crawl.render_timeout", cfg.Crawl.RenderTimeout)
	v.SetDefault("crawl.first_visit_wait", cfg.Crawl.FirstVisitWait)
	v.SetDefault("crawl.consent_wait", cfg.Crawl.ConsentWait)
	v.SetDefault("crawl.stale_backoff", cfg.Crawl.StaleBackoff)
	v.SetDefault("crawl.max_stale_retries", cfg.Crawl.MaxStaleRetries)

	v.SetDefault("pages.video_marker", cfg.Pages.VideoMarker)
	v.SetDefault("pages.gallery_title_marker", cfg.Pages.GalleryTitleMarker)
	v.SetDefault("pages.gallery_url_marker", cfg.Pages.GalleryURLMarker)
	v.SetDefault("pages.live_blog_prefix", cfg.Pages.LiveBlogPrefix)
	v.SetDefault("pages.article_prefix", cfg.Pages.ArticlePrefix)
	v.SetDefault("pages.title_suffix", cfg.Pages.TitleSuffix)

	v.SetDefault("selectors.listing_links", cfg.Selectors.ListingLinks)
	v.SetDefault("selectors.consent_buttons", cfg.Selectors.ConsentButtons)
	v.SetDefault("selectors.popup", cfg.Selectors.Popup)
	v.SetDefault("selectors.article_paragraphs", cfg.Selectors.ArticleParagraphs)
	v.SetDefault("selectors.paragraph_marker", cfg.Selectors.ParagraphMarker)
	v.SetDefault("selectors.live_headers", cfg.Selectors.LiveHeaders)
	v.SetDefault("selectors.live_header_limit", cfg.Selectors.LiveHeaderLimit)
	v.SetDefault("selectors.live_posts", cfg.Selectors.LivePosts)
	v.SetDefault("selectors.caption_primary", cfg.Selectors.CaptionPrimary)
	v.SetDefault("selectors.caption_secondary", cfg.Selectors.CaptionSecondary)
	v.SetDefault("selectors.copyright_line", cfg.Selectors.CopyrightLine)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mode", cfg.Storage.Mode)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

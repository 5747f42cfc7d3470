package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/dspxtv/prebid-dspx/errortypes"
)

// Configuration specifies the static application config.
type Configuration struct {
	ExternalURL string `mapstructure:"external_url"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	AdminPort   int    `mapstructure:"admin_port"`
	// StatusResponse is the string which will be returned by the /status endpoint when things are OK.
	// If empty, it will return a 204 with no content.
	StatusResponse  string          `mapstructure:"status_response"`
	EnableGzip      bool            `mapstructure:"enable_gzip"`
	Client          HTTPClient      `mapstructure:"http_client"`
	AuctionTimeouts AuctionTimeouts `mapstructure:"auction_timeouts_ms"`
	// MaxRequestSize is the largest auction body the dspx endpoint will read.
	MaxRequestSize    int64              `mapstructure:"max_request_size"`
	Metrics           Metrics            `mapstructure:"metrics"`
	Adapters          map[string]Adapter `mapstructure:"adapters"`
	CurrencyConverter CurrencyConverter  `mapstructure:"currency_converter"`
	UserSync          UserSync           `mapstructure:"user_sync"`
	// RequestTimeoutHeaders names the headers a load balancer uses to say how long a request queued.
	RequestTimeoutHeaders RequestTimeoutHeaders `mapstructure:"request_timeout_headers"`
	// BidderInfoDir and BidderParamsDir point at the static yaml and json schema files.
	BidderInfoDir   string `mapstructure:"bidder_info_dir"`
	BidderParamsDir string `mapstructure:"bidder_params_dir"`
}

type HTTPClient struct {
	MaxConnsPerHost     int `mapstructure:"max_connections_per_host"`
	MaxIdleConns        int `mapstructure:"max_idle_connections"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_connections_per_host"`
	IdleConnTimeout     int `mapstructure:"idle_connection_timeout_seconds"`
}

type AuctionTimeouts struct {
	// The default timeout is used if the user's request didn't define one. Use 0 if there's no default.
	Default uint64 `mapstructure:"default"`
	// The max timeout is used as an absolute cap, to prevent excessively long ones. Use 0 for no cap
	Max uint64 `mapstructure:"max"`
}

func (cfg *AuctionTimeouts) validate(errs []error) []error {
	if cfg.Max < cfg.Default {
		errs = append(errs, fmt.Errorf("auction_timeouts_ms.max cannot be less than auction_timeouts_ms.default. max=%d, default=%d", cfg.Max, cfg.Default))
	}
	return errs
}

// LimitAuctionTimeout returns the min of requested or cfg.MaxAuctionTimeout.
// Both values treat "0" as "infinite".
func (cfg *AuctionTimeouts) LimitAuctionTimeout(requested time.Duration) time.Duration {
	if requested == 0 && cfg.Default != 0 {
		return time.Duration(cfg.Default) * time.Millisecond
	}
	if cfg.Max > 0 {
		maxTimeout := time.Duration(cfg.Max) * time.Millisecond
		if requested == 0 || requested > maxTimeout {
			return maxTimeout
		}
	}
	return requested
}

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
	GoMetrics  GoMetrics         `mapstructure:"go_metrics"`
	Influxdb   InfluxMetrics     `mapstructure:"influxdb"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.TimeoutMillisRaw <= 0 {
		errs = append(errs, fmt.Errorf("metrics.prometheus.timeout_ms must be positive if metrics.prometheus.port is defined. Got timeout=%d and port=%d", cfg.TimeoutMillisRaw, cfg.Port))
	}
	return errs
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

// GoMetrics turns on the rcrowley/go-metrics registry, exposed as JSON under /debug/metrics.
type GoMetrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// InfluxMetrics ships the go-metrics registry to InfluxDB. Reporting is off while Host is empty.
type InfluxMetrics struct {
	Host               string `mapstructure:"host"`
	Database           string `mapstructure:"database"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MetricSendInterval int    `mapstructure:"metric_send_interval"`
}

func (cfg *InfluxMetrics) validate(goMetrics GoMetrics, errs []error) []error {
	if cfg.Host == "" {
		return errs
	}
	if !goMetrics.Enabled {
		errs = append(errs, errors.New("metrics.influxdb.host requires metrics.go_metrics.enabled"))
	}
	if cfg.MetricSendInterval <= 0 {
		errs = append(errs, fmt.Errorf("metrics.influxdb.metric_send_interval must be positive. Got %d", cfg.MetricSendInterval))
	}
	return errs
}

// SendInterval is the reporting period.
func (cfg *InfluxMetrics) SendInterval() time.Duration {
	return time.Duration(cfg.MetricSendInterval) * time.Second
}

// CurrencyConverter holds a static rate table. Rates are keyed from -> to.
type CurrencyConverter struct {
	Rates map[string]map[string]float64 `mapstructure:"rates"`
}

// UserSync holds the sync options used when a request does not say which sync types the page allows.
type UserSync struct {
	IFrameEnabled bool `mapstructure:"iframe_enabled"`
	PixelEnabled  bool `mapstructure:"pixel_enabled"`
}

// RequestTimeoutHeaders are unset by default, which disables the queue timeout check.
type RequestTimeoutHeaders struct {
	RequestTimeInQueue    string `mapstructure:"request_time_in_queue"`
	RequestTimeoutInQueue string `mapstructure:"request_timeout_in_queue"`
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	// Viper lowercases map keys; make that explicit so lookups by bidder name are stable.
	adapters := make(map[string]Adapter, len(c.Adapters))
	for name, adapter := range c.Adapters {
		adapters[strings.ToLower(name)] = adapter
	}
	c.Adapters = adapters

	glog.Infof("Resolved configuration: host=%q port=%d gzip=%t adapters=%d prometheus_port=%d", c.Host, c.Port, c.EnableGzip, len(c.Adapters), c.Metrics.Prometheus.Port)
	if errs := c.validate(); len(errs) > 0 {
		return &c, errortypes.NewAggregateErrors("validation errors", errs)
	}

	return &c, nil
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if cfg.Port <= 0 {
		errs = append(errs, errors.New("port must be a positive number"))
	}
	if cfg.AdminPort != 0 && cfg.AdminPort == cfg.Port {
		errs = append(errs, errors.New("admin_port must differ from port"))
	}
	if cfg.Metrics.Prometheus.Port != 0 && cfg.Metrics.Prometheus.Port == cfg.Port {
		errs = append(errs, errors.New("metrics.prometheus.port must differ from port"))
	}
	errs = cfg.AuctionTimeouts.validate(errs)
	errs = cfg.Metrics.Prometheus.validate(errs)
	errs = cfg.Metrics.Influxdb.validate(cfg.Metrics.GoMetrics, errs)
	errs = validateAdapters(cfg.Adapters, errs)
	return errs
}

// SetupViper sets the defaults and the config file lookup. Every key can be overridden with a
// PBS_ prefixed environment variable, dots replaced by underscores.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("external_url", "http://localhost:8000")
	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("status_response", "")
	v.SetDefault("enable_gzip", false)
	v.SetDefault("http_client.max_connections_per_host", 0) // unlimited
	v.SetDefault("http_client.max_idle_connections", 400)
	v.SetDefault("http_client.max_idle_connections_per_host", 10)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)
	v.SetDefault("auction_timeouts_ms.default", 1000)
	v.SetDefault("auction_timeouts_ms.max", 3000)
	v.SetDefault("max_request_size", 1024*256)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("metrics.go_metrics.enabled", false)
	v.SetDefault("metrics.go_metrics.prefix", "dspx.")
	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.metric_send_interval", 20)
	v.SetDefault("currency_converter.rates", map[string]map[string]float64{})
	v.SetDefault("user_sync.iframe_enabled", true)
	v.SetDefault("user_sync.pixel_enabled", true)
	v.SetDefault("request_timeout_headers.request_time_in_queue", "")
	v.SetDefault("request_timeout_headers.request_timeout_in_queue", "")
	v.SetDefault("bidder_info_dir", "static/bidder-info")
	v.SetDefault("bidder_params_dir", "static/bidder-params")

	v.SetDefault("adapters.dspx.endpoint", "https://buyer.dspx.tv/request/")
	v.SetDefault("adapters.dspx.extra_info", `{"dev_endpoint":"https://dcbuyer.dspx.tv/request/"}`)
	v.SetDefault("adapters.dspx.disabled", false)

	v.SetEnvPrefix("PBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if filename != "" {
		if err := v.ReadInConfig(); err != nil {
			glog.Warningf("Could not read config file %s: %v. Using defaults and environment.", filename, err)
		}
	}
}

// Server specifies the host settings handed to every bidder builder.
type Server struct {
	ExternalUrl string
	GvlID       int
	DataCenter  string
}

// Package warpconfig holds process-wide defaults for the warp client:
// dial timeout, default retry policy, and TLS settings for wss
// connections. It follows the package-level-state-plus-Init idiom.
package warpconfig

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/DobromirM/warp-go/retry"
)

// RetryPolicy describes which retry.Strategy new connections are built
// with by default.
type RetryPolicy struct {
	Kind        string        // "none", "interval", or "exponential"
	Delay       time.Duration // used by "interval"
	MaxInterval time.Duration // used by "exponential"
	Limit       int           // 0 means unlimited
}

// Strategy constructs the retry.Strategy this policy describes.
func (p RetryPolicy) Strategy() retry.Strategy {
	switch p.Kind {
	case "interval":
		return retry.NewInterval(p.Delay, p.Limit)
	case "exponential":
		return retry.NewExponential(p.MaxInterval, p.Limit)
	default:
		return retry.None{}
	}
}

// Config is the client's process-wide configuration.
type Config struct {
	DialTimeout time.Duration
	RetryPolicy RetryPolicy
	TLS         *tls.Config
}

var (
	mu      sync.RWMutex
	current = Defaults()
)

// Defaults returns the configuration used before Init is ever called.
func Defaults() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		RetryPolicy: RetryPolicy{
			Kind:        "exponential",
			MaxInterval: 30 * time.Second,
		},
	}
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// wireConfig mirrors Config in JSON-friendly terms: durations as whole
// seconds, since time.Duration has no natural JSON representation.
type wireConfig struct {
	DialTimeoutSeconds      int    `json:"dialTimeoutSeconds"`
	RetryKind               string `json:"retryKind"`
	RetryDelaySeconds       int    `json:"retryDelaySeconds"`
	RetryMaxIntervalSeconds int    `json:"retryMaxIntervalSeconds"`
	RetryLimit              int    `json:"retryLimit"`
	InsecureSkipVerify      bool   `json:"insecureSkipVerify"`
}

// Init reads a JSON configuration document from r and installs it as the
// active configuration. Fields left at their zero value in the document
// keep the corresponding Defaults() value.
func Init(r io.Reader) error {
	var wc wireConfig
	if err := json.NewDecoder(r).Decode(&wc); err != nil {
		return err
	}

	c := Defaults()
	if wc.DialTimeoutSeconds > 0 {
		c.DialTimeout = time.Duration(wc.DialTimeoutSeconds) * time.Second
	}
	if wc.RetryKind != "" {
		c.RetryPolicy.Kind = wc.RetryKind
	}
	if wc.RetryDelaySeconds > 0 {
		c.RetryPolicy.Delay = time.Duration(wc.RetryDelaySeconds) * time.Second
	}
	if wc.RetryMaxIntervalSeconds > 0 {
		c.RetryPolicy.MaxInterval = time.Duration(wc.RetryMaxIntervalSeconds) * time.Second
	}
	if wc.RetryLimit > 0 {
		c.RetryPolicy.Limit = wc.RetryLimit
	}
	if wc.InsecureSkipVerify {
		c.TLS = &tls.Config{InsecureSkipVerify: true}
	}

	mu.Lock()
	current = c
	mu.Unlock()
	return nil
}

// Set installs c as the active configuration directly, bypassing JSON
// decoding. Intended for callers building Config programmatically (tests,
// embedders with their own config system).
func Set(c Config) {
	mu.Lock()
	current = c
	mu.Unlock()
}

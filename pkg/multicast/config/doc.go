/*
Package config reads multicast settings from YAML or JSON documents.

A Config wraps a map[string]any and exposes typed accessors that fall back
to a default when a key is missing or holds a value of the wrong type, so a
partial file never fails to load because of an absent setting.

# Layout

Settings are grouped in two sections, returned by Dispatch and Publisher.
FromFile rejects any other top-level key:

	dispatch:
	  max_concurrency: 8
	  handler_timeout: 5s
	  metrics: true
	  tracing: false
	publisher:
	  error_policy: swallow
	  journal_path: ./failures.db

	cfg, err := config.FromFile("multicast.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	opts := multicast.OptionsFromConfig(cfg.Dispatch())
	pubOpts, journal, err := multicast.PublisherOptionsFromConfig(cfg.Publisher())

# Coercion

Duration accepts a time.ParseDuration string, a number of seconds, or a
time.Duration. Int accepts float64 values only when they have no fraction,
which is how encoding/json decodes every number.

Config is safe for concurrent reads; the map is never modified after New.
*/
package config

/*
Package source implements the loaders that turn configuration origins into
generic nested mappings.

Four loaders cover the supported formats:

  - EnvLoader: process environment filtered through a fixed variable-to-key
    table, with type coercion and dotted-path expansion; can fall back to a
    .env file (godotenv) for unset variables
  - YAMLLoader: generic nested mapping via yaml.v3
  - JSONLoader: generic nested mapping via encoding/json
  - ConfLoader: INI-style files via ini.v1, optional sections, quote stripping

Loaders report errors without judging them; whether a failed load aborts
resolution or is skipped is the resolver's call, driven by the source's
Required flag.
*/
package source

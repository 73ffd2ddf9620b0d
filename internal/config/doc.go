// Package config loads sentinel configuration from a .sentinel.json file
// found in the working directory or its parents, applying defaults for
// anything unset. API keys are read from the environment, with a local
// .env file loaded first.
package config

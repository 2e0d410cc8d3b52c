// Package models lists the speech models available to the configured OpenAI
// key, so users can pick a value for --openai-model.
package models

package cli

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
)

// retrievalParams converts the configured retrieval defaults into search
// parameters.
func retrievalParams(r config.RetrievalConfig) (collection.Params, error) {
	method, err := similarity.ParseMethod(r.Method)
	if err != nil {
		return collection.Params{}, err
	}
	scheme, err := weighting.ParseScheme(r.Weighting)
	if err != nil {
		return collection.Params{}, err
	}
	return collection.Params{Method: method, Scheme: scheme, K: r.TopK}, nil
}

func feedbackConfig(r config.RetrievalConfig) (feedback.Config, error) {
	strategy, err := feedback.ParseStrategy(r.Feedback.Strategy)
	if err != nil {
		return feedback.Config{}, err
	}
	cfg := feedback.Config{Strategy: strategy, Weight: r.Feedback.Weight}
	if err := cfg.Validate(); err != nil {
		return feedback.Config{}, err
	}
	return cfg, nil
}

// checkRetrieval rejects retrieval settings that name an unknown method,
// scheme or feedback strategy.
func checkRetrieval(cfg *config.Config) error {
	if _, err := retrievalParams(cfg.Retrieval); err != nil {
		return err
	}
	_, err := feedbackConfig(cfg.Retrieval)
	return err
}

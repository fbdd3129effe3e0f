package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/am"
	"github.com/teranos/prompttask/errors"
)

// FromConfig builds the memory selected by cfg.Backend. It returns nil for
// the "none" backend, in which case structures run without history.
func FromConfig(ctx context.Context, cfg am.MemoryConfig, log *zap.SugaredLogger) (*ConversationMemory, error) {
	conversation := cfg.Conversation
	if conversation == "" {
		conversation = "default"
	}
	opts := []Option{WithMaxRuns(cfg.MaxRuns), WithLogger(log)}

	switch cfg.Backend {
	case "", am.MemoryBackendNone:
		return nil, nil
	case am.MemoryBackendMemory:
		return New(opts...), nil
	case am.MemoryBackendSQLite:
		store, err := OpenSQLite(ctx, cfg.Path, conversation)
		if err != nil {
			return nil, err
		}
		return openWithStore(ctx, store, opts)
	case am.MemoryBackendBolt:
		store, err := OpenBolt(cfg.Path, conversation)
		if err != nil {
			return nil, err
		}
		return openWithStore(ctx, store, opts)
	default:
		return nil, errors.NewConfigurationError("unknown memory backend %q", cfg.Backend)
	}
}

func openWithStore(ctx context.Context, store Store, opts []Option) (*ConversationMemory, error) {
	m, err := Open(ctx, append(opts, WithStore(store))...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return m, nil
}

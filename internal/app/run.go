package app

import (
	"context"
	"fmt"

	"github.com/vk/arbor/internal/ctxlog"
	"github.com/vk/arbor/internal/network"
)

// Run executes the main application logic: build the loaded architecture
// into a network and write its description to the configured output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	net := network.New(a.doc.Root, a.doc.Options())
	if err := net.Build(ctx); err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	a.logger.Debug("Network built.", "node_count", net.Graph().Len())

	if err := describe(a.outW, net); err != nil {
		return fmt.Errorf("failed to describe network: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

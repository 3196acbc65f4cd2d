package lspserver

import (
	"context"
	"log"
	"path/filepath"

	protocol "github.com/wharflab/testingls/internal/lsp/protocol"

	"github.com/wharflab/testingls/internal/config"
	"github.com/wharflab/testingls/internal/spec"
)

// loadSettings loads configuration for root (the first workspace folder,
// or rootUri, from the initialize request) layered with
// initializationOptions, and replaces the server's adapter table and
// project directory.
func (s *Server) loadSettings(root string, initializationOptions any) error {
	cfg, err := config.Load(root, initializationOptions)
	if err != nil {
		return err
	}
	s.applyConfig(root, cfg)
	return nil
}

// applyConfig converts cfg's adapter table into the AdapterId -> []
// AdapterConfiguration map the workspace-root cache and diagnostic
// engine operate on.
//
// cfg.Adapters holds one AdapterSettings per adapter id, so each slice
// built here has exactly one configuration in it.
func (s *Server) applyConfig(root string, cfg *config.Config) {
	adapters := make(map[spec.AdapterId][]spec.AdapterConfiguration, len(cfg.Adapters))
	for id, settings := range cfg.Adapters {
		workspaceDir := settings.WorkspaceDir
		if workspaceDir == "" {
			workspaceDir = settings.RootDir
		}
		adapters[spec.AdapterId(id)] = append(adapters[spec.AdapterId(id)], spec.AdapterConfiguration{
			Path:         settings.Path,
			ExtraArgs:    settings.ExtraArgs,
			Env:          settings.Envs,
			Include:      settings.Include,
			Exclude:      settings.Exclude,
			WorkspaceDir: workspaceDir,
		})
	}

	s.projectDir = root
	s.adapterCommand = adapters

	if cfg.ConfigFile != "" {
		log.Printf("lspserver: loaded config from %s (project dir %s)", cfg.ConfigFile, filepath.Clean(root))
	}
}

// handleDidChangeConfiguration re-resolves the adapter table from the
// pushed settings object and refreshes the workspace cache, since
// adapter definitions may have changed.
func (s *Server) handleDidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) {
	cfg, err := config.Load(s.projectDir, params.Settings)
	if err != nil {
		log.Printf("lspserver: didChangeConfiguration: %v", err)
		return
	}
	s.applyConfig(s.projectDir, cfg)

	if err := s.refreshWorkspaceRootCache(ctx); err != nil {
		log.Printf("lspserver: didChangeConfiguration refresh: %v", err)
	}
}

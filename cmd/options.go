// Copyright © 2024 The Quill authors

package cmd

import (
	"github.com/luthersystems/quill/analysis"
	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/spf13/afero"
)

// Option configures an exported command factory (LintCommand,
// LSPCommand, ServeCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	fs      afero.Fs
	globals []analysis.ExternalSymbol
}

func newCmdConfig(opts []Option) *cmdConfig {
	c := &cmdConfig{fs: afero.NewOsFs()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithFs sets the filesystem commands read source files from.
func WithFs(fs afero.Fs) Option {
	return func(c *cmdConfig) { c.fs = fs }
}

// WithGlobals predefines names provided by the embedding host, so that
// the analysis does not report them as undefined.
func WithGlobals(globals ...analysis.ExternalSymbol) Option {
	return func(c *cmdConfig) { c.globals = append(c.globals, globals...) }
}

// queryConfig returns the analysis configuration of the current settings
// extended with the host globals.
func (c *cmdConfig) queryConfig() query.Config {
	qc := currentSettings().Query()
	qc.Globals = c.globals
	return qc
}

// newService builds an analysis service from the current settings.
func (c *cmdConfig) newService(opts ...service.Option) *service.Service {
	all := append(currentSettings().ServiceOptions(),
		service.WithConfig(c.queryConfig()),
		service.WithLogger(logger))
	return service.New(append(all, opts...)...)
}

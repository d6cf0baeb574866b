package handler

import (
	"github.com/habitlog/internal/engine"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	engine *engine.Engine
}

// NewAPI constructs a handler set around the habit engine.
func NewAPI(eng *engine.Engine) *API {
	return &API{engine: eng}
}

// Engine exposes the underlying engine for wiring event sinks.
func (a *API) Engine() *engine.Engine {
	return a.engine
}

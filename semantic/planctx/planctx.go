// Copyright 2024 The Trilogy Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package planctx carries the per-compilation request context the resolver
// and planner packages thread through every call: a cancellable
// context.Context, a root opentracing.Span for the compile, and a logrus
// entry (on the standard logger unless WithLogger supplies one; fields are
// added only through WithFields).
// This mirrors the way the teacher threads *sql.Context through execution
// (SPEC_FULL.md §A.1): one value object carried by every exported function
// instead of a global logger or tracer.
package planctx

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// Context wraps a context.Context with the tracing span and logger scoped
// to one query-compilation pass.
type Context struct {
	context.Context
	span *opentracing.Span
	log  *logrus.Entry
}

// Option configures a Context at construction.
type Option func(*Context)

// WithRootSpan attaches an existing span instead of starting a new one.
func WithRootSpan(span opentracing.Span) Option {
	return func(c *Context) { c.span = &span }
}

// WithLogger overrides the default logrus entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Context) { c.log = entry }
}

// New builds a Context for one compilation pass, starting a root span named
// "plan.compile" unless WithRootSpan overrides it.
func New(ctx context.Context, opts ...Option) *Context {
	c := &Context{Context: ctx, log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(c)
	}
	if c.span == nil {
		span, spanCtx := opentracing.StartSpanFromContext(ctx, "plan.compile")
		c.span = &span
		c.Context = spanCtx
	}
	return c
}

// Span returns the root span for this compilation.
func (c *Context) Span() opentracing.Span {
	return *c.span
}

// Logger returns the logger scoped to this compilation.
func (c *Context) Logger() *logrus.Entry {
	return c.log
}

// WithFields returns a derived Context whose logger carries the given
// fields on every subsequent entry, e.g. the select's output address or the
// current resolution tier, without mutating the parent.
func (c *Context) WithFields(fields logrus.Fields) *Context {
	return &Context{Context: c.Context, span: c.span, log: c.log.WithFields(fields)}
}

// StartSpan starts a child span of the compilation's root span for one
// resolver or planner step, e.g. "resolver.resolve" or "planner.process_query".
func (c *Context) StartSpan(operation string) (opentracing.Span, *Context) {
	span, ctx := opentracing.StartSpanFromContext(c.Context, operation)
	child := &Context{Context: ctx, span: &span, log: c.log}
	return span, child
}

// Finish finishes the root span. Callers defer this immediately after New.
func (c *Context) Finish() {
	(*c.span).Finish()
}

package slogutil

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
)

// fields holds the attributes carried by a context, keyed so later values win.
type fields map[string]slog.Attr

type fieldsKey struct{}

// With returns a context whose log records carry the given key-value pairs,
// such as the filesystem id or the share path an operation works on.
func With(ctx context.Context, kvargs ...any) context.Context {
	if len(kvargs) == 0 {
		return ctx
	}

	f, _ := ctx.Value(fieldsKey{}).(fields)
	f = maps.Clone(f)
	if f == nil {
		f = fields{}
	}

	var r slog.Record
	r.Add(kvargs...)
	for a := range r.Attrs {
		f[a.Key] = a
	}

	return context.WithValue(ctx, fieldsKey{}, f)
}

// contextAttrs yields the attributes of ctx in key order, so records are stable.
func contextAttrs(ctx context.Context) iter.Seq[slog.Attr] {
	return func(yield func(slog.Attr) bool) {
		f, ok := ctx.Value(fieldsKey{}).(fields)
		if !ok {
			return
		}
		for _, k := range slices.Sorted(maps.Keys(f)) {
			if !yield(f[k]) {
				return
			}
		}
	}
}

type contextHook struct{}

func (contextHook) Run(ctx context.Context, r *slog.Record) {
	for a := range contextAttrs(ctx) {
		r.AddAttrs(a)
	}
}

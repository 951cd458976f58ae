package logging

import (
	"log/slog"
	"slices"
	"strings"
)

// attrState is the attribute and group context a handler accumulates
// through WithAttrs and WithGroup. Attributes keep the groups that were open
// when they were added.
type attrState struct {
	attrs  []groupedAttr
	groups []string
}

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func (s attrState) withAttrs(attrs []slog.Attr) attrState {
	out := slices.Clip(s.attrs)
	for _, a := range attrs {
		out = append(out, groupedAttr{groups: s.groups, attr: a})
	}
	return attrState{attrs: out, groups: s.groups}
}

func (s attrState) withGroup(name string) attrState {
	if name == "" {
		return s
	}
	return attrState{attrs: s.attrs, groups: append(slices.Clip(s.groups), name)}
}

// each visits the handler's attributes, then the record's, one leaf at a
// time. Group names are joined onto the key with sep.
func (s attrState) each(r slog.Record, sep string, fn func(key string, v slog.Value)) {
	for _, ga := range s.attrs {
		walkAttr(ga.groups, ga.attr, sep, fn)
	}
	r.Attrs(func(a slog.Attr) bool {
		walkAttr(s.groups, a, sep, fn)
		return true
	})
}

func walkAttr(prefix []string, a slog.Attr, sep string, fn func(key string, v slog.Value)) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		next := prefix
		if a.Key != "" {
			next = append(slices.Clip(prefix), a.Key)
		}
		for _, ga := range v.Group() {
			walkAttr(next, ga, sep, fn)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, sep) + sep + key
	}
	fn(key, v)
}

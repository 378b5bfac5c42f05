// Package logging builds the application logger. Credentials handed to the
// process (producer API key, bot token) must never reach the log stream, so
// the production core is wrapped with a redacting core that scrubs them from
// messages and string fields.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const mask = "[redacted]"

// New returns a production zap logger whose output has every occurrence of
// the given secrets replaced. Empty secrets are ignored.
func New(secrets ...string) (*zap.Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	filtered := secrets[:0:0]
	for _, s := range secrets {
		if s != "" {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return base, nil
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &redactCore{Core: core, secrets: filtered}
	})), nil
}

// redactCore scrubs secrets from the entry message and any string-valued
// fields before handing them to the wrapped core. Non-string fields pass
// through untouched; secrets are not expected to appear there.
type redactCore struct {
	zapcore.Core
	secrets []string
}

func (c *redactCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactCore{Core: c.Core.With(c.redactFields(fields)), secrets: c.secrets}
}

func (c *redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = c.redact(ent.Message)
	return c.Core.Write(ent, c.redactFields(fields))
}

func (c *redactCore) redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			f.String = c.redact(f.String)
		}
		if f.Type == zapcore.ErrorType {
			if err, ok := f.Interface.(error); ok && c.contains(err.Error()) {
				f = zap.String(f.Key, c.redact(err.Error()))
			}
		}
		out[i] = f
	}
	return out
}

func (c *redactCore) redact(s string) string {
	for _, secret := range c.secrets {
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}

func (c *redactCore) contains(s string) bool {
	for _, secret := range c.secrets {
		if strings.Contains(s, secret) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// SettingStore persists setting overrides.
type SettingStore interface {
	All(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, keys []string, values map[string]string) error
}

// SettingsResolver merges the immutable defaults with the persisted
// overrides.  It holds no cached state; every call reads the store.
type SettingsResolver struct {
	defaults model.Settings
	store    SettingStore
	audit    *AuditRecorder
	log      logrus.FieldLogger
	onChange []func(context.Context)
}

// NewSettingsResolver returns a resolver over the given defaults.
func NewSettingsResolver(defaults model.Settings, store SettingStore, audit *AuditRecorder, log logrus.FieldLogger) *SettingsResolver {
	return &SettingsResolver{defaults: defaults, store: store, audit: audit, log: log}
}

// OnChange registers fn to run after an update that changed something.
// It is used to drop cached copies of the settings.  Not safe to call
// concurrently with Update.
func (r *SettingsResolver) OnChange(fn func(context.Context)) {
	r.onChange = append(r.onChange, fn)
}

// Defaults returns the compiled defaults the resolver starts from.
func (r *SettingsResolver) Defaults() model.Settings { return r.defaults }

// Resolve returns the effective settings.  A storage failure is returned;
// there is no fallback to defaults alone.
func (r *SettingsResolver) Resolve(ctx context.Context) (model.Settings, error) {
	overrides, err := r.store.All(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return r.defaults.Merge(overrides), nil
}

// Update persists the recognised keys of changes and returns the new
// effective settings.  Unknown keys are dropped without error.  A key
// counts as changed when it had no stored row or its stored value
// differs; all changed keys are written together and described by one
// update_settings audit entry attributed to role.
func (r *SettingsResolver) Update(ctx context.Context, role string, changes map[string]string) (model.Settings, error) {
	stored, err := r.store.All(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	var keys, fragments []string
	for _, k := range model.SettingKeys {
		v, ok := changes[k]
		if !ok {
			continue
		}
		if old, exists := stored[k]; exists && old == v {
			continue
		}
		keys = append(keys, k)
		fragments = append(fragments, fmt.Sprintf("%s='%s'", k, v))
		stored[k] = v
	}
	for k := range changes {
		if !model.IsSettingKey(k) {
			r.log.WithField("key", k).Debug("ignoring unknown setting key")
		}
	}
	if len(keys) > 0 {
		if err := r.store.Save(ctx, keys, changes); err != nil {
			return model.Settings{}, fmt.Errorf("save settings: %w", err)
		}
		r.audit.Record(ctx, role, model.ActionUpdateSettings, "Updated settings: "+strings.Join(fragments, ", "))
		for _, fn := range r.onChange {
			fn(ctx)
		}
		r.log.WithFields(logrus.Fields{"role": role, "keys": keys}).Info("settings updated")
	}
	return r.defaults.Merge(stored), nil
}

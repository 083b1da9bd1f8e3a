package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// LoadEventDefaults returns the compiled event-setting defaults overlaid
// with the YAML file at path.  A missing file is not an error.  Keys in
// the file that are not setting keys are ignored; values of any scalar
// type are taken as their string form.  The result is read once at
// start-up and never changes afterwards.
//
// Example file:
//
//  event_name: Spring Gala
//  total_capacity: 150
//  show_dates: 2026-05-02,2026-05-09
func LoadEventDefaults(path string, log logrus.FieldLogger) (model.Settings, error) {
	defaults := model.DefaultSettings()
	if path == "" {
		return defaults, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Debug("no event defaults file, using compiled defaults")
		return defaults, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return defaults, fmt.Errorf("read event defaults %s: %w", path, err)
	}
	overlay := map[string]string{}
	for _, k := range model.SettingKeys {
		if v.IsSet(k) {
			overlay[k] = v.GetString(k)
		}
	}
	for _, k := range v.AllKeys() {
		if !model.IsSettingKey(k) {
			log.WithField("key", k).Warn("ignoring unknown key in event defaults file")
		}
	}
	log.WithFields(logrus.Fields{"path": path, "keys": len(overlay)}).Info("event defaults loaded")
	return defaults.Merge(overlay), nil
}

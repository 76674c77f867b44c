package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "SCHEDULER_"

type Application struct {
	Host      string    `koanf:"host"`
	Port      int       `koanf:"port"`
	Database  Database  `koanf:"db"`
	Scheduler Scheduler `koanf:"scheduler"`
	Workers   Workers   `koanf:"workers"`
	Google    Google    `koanf:"google"`
	Metrics   Metrics   `koanf:"metrics"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Scheduler struct {
	// Recheck re-runs the availability check for every participant inside the
	// booking transaction and aborts with a conflict when the slot was taken meanwhile.
	Recheck bool `koanf:"recheck"`
}

type Workers struct {
	Size          int `koanf:"size"`
	QueueCapacity int `koanf:"queuecapacity"`
}

// Google configures mirroring of booked meetings into a shared Google calendar.
type Google struct {
	Enabled         bool   `koanf:"enabled"`
	CredentialsFile string `koanf:"credentialsfile"`
	CalendarId      string `koanf:"calendarid"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

func Defaults() Application {
	return Application{
		Host: "0.0.0.0",
		Port: 8181,
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "scheduler",
			Pass:   "",
			Name:   "scheduler",
			Schema: "scheduler",
		},
		Scheduler: Scheduler{
			Recheck: true,
		},
		Workers: Workers{
			Size:          10,
			QueueCapacity: 500,
		},
		Google: Google{
			Enabled:    false,
			CalendarId: "primary",
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
